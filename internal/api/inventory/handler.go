package inventory

import (
	"net/http"
	"strconv"

	"stockledger/internal/api/response"
	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
)

// Handler expõe o ledger de estoque.
type Handler struct {
	Service domain.InventoryService
	resp    response.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc domain.InventoryService, log logger.Logger) *Handler {
	return &Handler{Service: svc, resp: response.New(log)}
}

// ListInventoryHandler lida com GET /v1/inventory.
// @Summary Lista o estoque
// @Description Lista os registros de um local, ou a visão agrupada quando grouped=true.
// @Tags inventory
// @Produce json
// @Param location query string false "ISV ou Houston"
// @Param grouped query bool false "Agrupar por nome, SKU e local"
// @Param sort query string false "quantity (padrão) ou name"
// @Success 200 {array} domain.StockRecord
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /inventory [get]
func (h *Handler) ListInventoryHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	location := domain.Location(q.Get("location"))

	grouped := false
	if raw := q.Get("grouped"); raw != "" {
		var err error
		if grouped, err = strconv.ParseBool(raw); err != nil {
			h.resp.Error(w, r, apperror.NewValidationError("grouped deve ser true ou false"))
			return
		}
	}

	if grouped {
		groups, err := h.Service.Grouped(r.Context(), location, domain.GroupSort(q.Get("sort")))
		h.resp.Handle(w, r, groups, err, http.StatusOK)
		return
	}

	records, err := h.Service.List(r.Context(), location)
	h.resp.Handle(w, r, records, err, http.StatusOK)
}

// CreateInventoryHandler lida com POST /v1/inventory.
// @Summary Cria estoque
// @Description Cria um registro por número de série, ou soma ao pool sem serial do produto.
// @Tags inventory
// @Accept json
// @Produce json
// @Param inventory body domain.CreateInventoryRequest true "Produto, local, quantidade e números de série"
// @Success 201 {array} domain.StockRecord
// @Failure 400 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse "Número de série já existe ou já foi enviado"
// @Security ApiKeyAuth
// @Router /inventory [post]
func (h *Handler) CreateInventoryHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateInventoryRequest
	if err := response.Decode(w, r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	records, err := h.Service.Create(r.Context(), req)
	h.resp.Handle(w, r, records, err, http.StatusCreated)
}

// UpdateInventoryHandler lida com PUT /v1/inventory/{id}.
// @Summary Atualiza um registro de estoque
// @Tags inventory
// @Accept json
// @Produce json
// @Param id path string true "ID do registro"
// @Param inventory body domain.UpdateInventoryRequest true "Todos os campos do registro"
// @Success 200 {object} domain.UpdateOutcome
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Failure 409 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /inventory/{id} [put]
func (h *Handler) UpdateInventoryHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateInventoryRequest
	if err := response.Decode(w, r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	outcome, err := h.Service.Update(r.Context(), r.PathValue("id"), req)
	h.resp.Handle(w, r, outcome, err, http.StatusOK)
}

// DeleteInventoryHandler lida com DELETE /v1/inventory/{id}.
// @Summary Remove (ou decrementa) um registro de estoque
// @Tags inventory
// @Produce json
// @Param id path string true "ID do registro"
// @Success 200 {object} domain.DeleteOutcome
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /inventory/{id} [delete]
func (h *Handler) DeleteInventoryHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.Service.Delete(r.Context(), r.PathValue("id"))
	h.resp.Handle(w, r, outcome, err, http.StatusOK)
}

// DeleteGroupHandler lida com DELETE /v1/inventory?name=&sku=&location=.
// @Summary Remove todos os registros de um grupo
// @Tags inventory
// @Produce json
// @Param name query string true "Nome"
// @Param sku query string true "SKU"
// @Param location query string true "Local"
// @Success 200 {object} map[string]int64
// @Failure 400 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /inventory [delete]
func (h *Handler) DeleteGroupHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	key := domain.GroupKey{Name: q.Get("name"), SKU: q.Get("sku"), Location: domain.Location(q.Get("location"))}

	deleted, err := h.Service.DeleteGroup(r.Context(), key)
	h.resp.Handle(w, r, map[string]int64{"deleted": deleted}, err, http.StatusOK)
}
