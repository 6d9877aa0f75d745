package inquiry

import (
	"net/http"

	"stockledger/internal/api/response"
	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/middleware"
)

// Handler expõe o fluxo de solicitações de cotação.
type Handler struct {
	Service domain.InquiryService
	resp    response.Responder
}

func NewHandler(svc domain.InquiryService, log logger.Logger) *Handler {
	return &Handler{Service: svc, resp: response.New(log)}
}

// SubmitInquiryHandler lida com POST /v1/inquiries.
// @Summary Envia uma solicitação de cotação
// @Tags inquiries
// @Accept json
// @Produce json
// @Param inquiry body domain.InquiryRequest true "Empresa, contato e itens"
// @Success 201 {object} domain.Inquiry
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse "Produto inexistente"
// @Security ApiKeyAuth
// @Router /inquiries [post]
func (h *Handler) SubmitInquiryHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.InquiryRequest
	if err := response.Decode(w, r, &req); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	claims, _ := middleware.GetUserClaimsFromContext(r.Context())
	inquiry, err := h.Service.Submit(r.Context(), req, claims.UserID)
	h.resp.Handle(w, r, inquiry, err, http.StatusCreated)
}

// ListInquiriesHandler lida com GET /v1/inquiries.
// @Summary Lista as solicitações
// @Tags inquiries
// @Produce json
// @Success 200 {array} domain.Inquiry
// @Security ApiKeyAuth
// @Router /inquiries [get]
func (h *Handler) ListInquiriesHandler(w http.ResponseWriter, r *http.Request) {
	inquiries, err := h.Service.List(r.Context())
	h.resp.Handle(w, r, inquiries, err, http.StatusOK)
}

// AdvanceInquiryHandler lida com PATCH /v1/inquiries/{id}?action=process|fulfill.
// @Summary Avança o status de uma solicitação
// @Tags inquiries
// @Produce json
// @Param id path string true "ID da solicitação"
// @Param action query string true "process ou fulfill"
// @Success 200 {object} domain.Inquiry
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /inquiries/{id} [patch]
func (h *Handler) AdvanceInquiryHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var (
		inquiry domain.Inquiry
		err     error
	)
	switch action := r.URL.Query().Get("action"); action {
	case "process":
		inquiry, err = h.Service.Process(r.Context(), id)
	case "fulfill":
		inquiry, err = h.Service.Fulfill(r.Context(), id)
	default:
		err = apperror.NewValidationError("action deve ser process ou fulfill")
	}
	h.resp.Handle(w, r, inquiry, err, http.StatusOK)
}

// DeleteInquiryHandler lida com DELETE /v1/inquiries/{id}.
// @Summary Remove uma solicitação
// @Tags inquiries
// @Param id path string true "ID da solicitação"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /inquiries/{id} [delete]
func (h *Handler) DeleteInquiryHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.Delete(r.Context(), r.PathValue("id"))
	h.resp.Handle(w, r, nil, err, http.StatusNoContent)
}
