package shipment

import (
	"net/http"
	"strconv"

	"stockledger/internal/api/response"
	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// Handler expõe o motor de envios.
type Handler struct {
	Service domain.ShipmentService
	resp    response.Responder
}

// NewHandler cria uma nova instância do Handler.
func NewHandler(svc domain.ShipmentService, log logger.Logger) *Handler {
	return &Handler{Service: svc, resp: response.New(log)}
}

// ListShipmentsHandler lida com GET /v1/shipments.
// @Summary Lista envios
// @Tags shipments
// @Produce json
// @Param poNumber query string false "Número do pedido"
// @Param status query string false "requested, processing, in_transit, delivered, canceled"
// @Param from query string false "Local de origem"
// @Param to query string false "Destino"
// @Success 200 {array} domain.Shipment
// @Failure 400 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /shipments [get]
func (h *Handler) ListShipmentsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.ShipmentFilter{
		PONumber: q.Get("poNumber"),
		Status:   domain.ShipmentStatus(q.Get("status")),
		From:     domain.Location(q.Get("from")),
		To:       q.Get("to"),
	}
	if filter.Status != "" && !filter.Status.Valid() {
		h.resp.Error(w, r, apperror.NewValidationError("status de envio desconhecido: "+string(filter.Status)))
		return
	}

	shipments, err := h.Service.List(r.Context(), filter)
	h.resp.Handle(w, r, shipments, err, http.StatusOK)
}

// GetShipmentHandler lida com GET /v1/shipments/{id}.
// @Summary Obtém um envio
// @Tags shipments
// @Produce json
// @Param id path string true "ID do envio"
// @Success 200 {object} domain.Shipment
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /shipments/{id} [get]
func (h *Handler) GetShipmentHandler(w http.ResponseWriter, r *http.Request) {
	shipment, err := h.Service.Get(r.Context(), r.PathValue("id"))
	h.resp.Handle(w, r, shipment, err, http.StatusOK)
}

// CreateShipmentHandler lida com POST /v1/shipments.
// @Summary Cria um envio e reserva o estoque
// @Tags shipments
// @Accept json
// @Produce json
// @Param shipment body domain.CreateShipmentRequest true "Pedido, origem, destino e linhas"
// @Success 201 {object} domain.Shipment
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse "Estoque insuficiente"
// @Security ApiKeyAuth
// @Router /shipments [post]
func (h *Handler) CreateShipmentHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateShipmentRequest
	if err := response.Decode(w, r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	shipment, err := h.Service.Create(r.Context(), req)
	h.resp.Handle(w, r, shipment, err, http.StatusCreated)
}

// UpdateShipmentHandler lida com PATCH /v1/shipments/{id}.
// @Summary Atualiza status, linhas ou custos de um envio
// @Tags shipments
// @Accept json
// @Produce json
// @Param id path string true "ID do envio"
// @Param patch body domain.ShipmentPatch true "Campos a alterar"
// @Success 200 {object} domain.Shipment
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 422 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /shipments/{id} [patch]
func (h *Handler) UpdateShipmentHandler(w http.ResponseWriter, r *http.Request) {
	var patch domain.ShipmentPatch
	if err := response.Decode(w, r, &patch); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	shipment, err := h.Service.Update(r.Context(), r.PathValue("id"), patch)
	h.resp.Handle(w, r, shipment, err, http.StatusOK)
}

// DeleteShipmentHandler lida com DELETE /v1/shipments/{id}?restoreStock=true.
// @Summary Remove um envio
// @Tags shipments
// @Param id path string true "ID do envio"
// @Param restoreStock query bool false "Devolve o estoque de envios ainda em requested"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /shipments/{id} [delete]
func (h *Handler) DeleteShipmentHandler(w http.ResponseWriter, r *http.Request) {
	restore := false
	if raw := r.URL.Query().Get("restoreStock"); raw != "" {
		var err error
		if restore, err = strconv.ParseBool(raw); err != nil {
			h.resp.Error(w, r, apperror.NewValidationError("restoreStock deve ser true ou false"))
			return
		}
	}

	err := h.Service.Delete(r.Context(), r.PathValue("id"), restore)
	h.resp.Handle(w, r, nil, err, http.StatusNoContent)
}
