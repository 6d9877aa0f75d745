package product

import (
	"net/http"
	"strconv"

	"stockledger/internal/api/response"
	"stockledger/internal/domain"
	apperror "stockledger/internal/errors"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/middleware"
)

// Handler agrupa todos os métodos de Handler do produto.
type Handler struct {
	Service domain.ProductService
	Logger  logger.Logger
	resp    response.Responder
}

// NewHandler cria uma nova instância do Handler, injetando o Service e o Logger.
func NewHandler(svc domain.ProductService, log logger.Logger) *Handler {
	return &Handler{Service: svc, Logger: log, resp: response.New(log)}
}

// CreateProductHandler lida com a requisição POST /v1/products.
// @Summary Cria um produto no catálogo
// @Tags products
// @Accept json
// @Produce json
// @Param product body domain.Product true "Produto"
// @Success 201 {object} domain.Product
// @Failure 400 {object} domain.ErrorResponse
// @Failure 403 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /products [post]
func (h *Handler) CreateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if claims, ok := middleware.GetUserClaimsFromContext(ctx); ok {
		h.Logger.Info("Tentativa de criação de produto por", map[string]interface{}{
			"user_id": claims.UserID,
			"role":    claims.Role,
		})
	}

	var product domain.Product
	if err := response.Decode(w, r, &product); err != nil {
		h.resp.Error(w, r, err)
		return
	}

	created, err := h.Service.CreateProduct(ctx, product)
	h.resp.Handle(w, r, created, err, http.StatusCreated)
}

// GetProductByIDHandler lida com a requisição GET /v1/products/{id}.
// @Summary Obtém um produto
// @Description Produtos desabilitados só aparecem para administradores.
// @Tags products
// @Produce json
// @Param id path string true "ID do produto"
// @Success 200 {object} domain.Product
// @Failure 404 {object} domain.ErrorResponse
// @Router /products/{id} [get]
func (h *Handler) GetProductByIDHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	product, err := h.Service.GetProductByID(ctx, r.PathValue("id"), middleware.RoleFromContext(ctx))
	h.resp.Handle(w, r, product, err, http.StatusOK)
}

// ListProductsHandler lida com GET /v1/products.
// @Summary Lista o catálogo
// @Tags products
// @Produce json
// @Param page query int false "Página (1..)"
// @Param limit query int false "Itens por página"
// @Param name query string false "Filtro por nome"
// @Param category query string false "Server, Edge Server, Edge ou Parts"
// @Param family query string false "Família"
// @Param status query string false "enable ou disable (apenas admin)"
// @Success 200 {array} domain.Product
// @Router /products [get]
func (h *Handler) ListProductsHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	filter := domain.ProductFilter{
		Name:     q.Get("name"),
		Category: domain.ProductCategory(q.Get("category")),
		Family:   q.Get("family"),
		Status:   domain.ProductStatus(q.Get("status")),
	}
	for param, dst := range map[string]*int{"page": &filter.Page, "limit": &filter.Limit} {
		raw := q.Get(param)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			h.resp.Error(w, r, apperror.NewValidationError(param+" deve ser um inteiro positivo"))
			return
		}
		*dst = n
	}
	// Só o admin enxerga produtos desabilitados.
	filter.EnabledOnly = middleware.RoleFromContext(ctx) != domain.RoleAdmin

	products, err := h.Service.ListProducts(ctx, filter)
	h.resp.Handle(w, r, products, err, http.StatusOK)
}

// UpdateProductHandler lida com PUT /v1/products/{id}.
// @Summary Substitui um produto
// @Tags products
// @Accept json
// @Param id path string true "ID do produto"
// @Param product body domain.Product true "Produto"
// @Success 204
// @Failure 400 {object} domain.ErrorResponse
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /products/{id} [put]
func (h *Handler) UpdateProductHandler(w http.ResponseWriter, r *http.Request) {
	var product domain.Product
	if err := response.Decode(w, r, &product); err != nil {
		h.resp.Error(w, r, err)
		return
	}
	product.ID = r.PathValue("id")

	err := h.Service.UpdateProduct(r.Context(), product)
	h.resp.Handle(w, r, nil, err, http.StatusNoContent)
}

// DeleteProductHandler lida com DELETE /v1/products/{id}.
// @Summary Remove um produto
// @Tags products
// @Param id path string true "ID do produto"
// @Success 204
// @Failure 404 {object} domain.ErrorResponse
// @Security ApiKeyAuth
// @Router /products/{id} [delete]
func (h *Handler) DeleteProductHandler(w http.ResponseWriter, r *http.Request) {
	err := h.Service.DeleteProduct(r.Context(), r.PathValue("id"))
	h.resp.Handle(w, r, nil, err, http.StatusNoContent)
}
