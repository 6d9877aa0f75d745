package router

import (
	"net/http"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	"stockledger/internal/api/inquiry"
	"stockledger/internal/api/inventory"
	"stockledger/internal/api/product"
	"stockledger/internal/api/shipment"
	"stockledger/internal/api/user"
	"stockledger/internal/pkg/cache"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/metrics"
	"stockledger/internal/pkg/middleware"
)

// Handlers reúne os handlers já inicializados por injeção de dependências.
type Handlers struct {
	Product   *product.Handler
	User      *user.Handler
	Inventory *inventory.Handler
	Shipment  *shipment.Handler
	Inquiry   *inquiry.Handler
}

// Options são as dependências transversais dos middlewares globais.
type Options struct {
	Tokens          middleware.TokenService
	Cache           cache.Client
	Metrics         *metrics.Metrics
	Logger          logger.Logger
	RateLimit       int
	RateLimitPeriod time.Duration
}

// NewRouter configura e retorna o roteador HTTP principal.
// Ordem dos middlewares: rate limit → autenticação → métricas → mux → capacidade da rota.
func NewRouter(h Handlers, opts Options) http.Handler {
	mux := http.NewServeMux()

	// --- 1. Rotas públicas ---
	mux.HandleFunc("GET /ping", PingHandler)
	mux.Handle("GET /metrics", opts.Metrics.Handler())
	mux.Handle("GET /swagger/", httpSwagger.WrapHandler)
	mux.HandleFunc("POST /v1/register", h.User.RegisterUserHandler)
	mux.HandleFunc("POST /v1/login", h.User.LoginUserHandler)

	// route registra o handler atrás da capacidade exigida.
	route := func(pattern string, capability middleware.Capability, fn http.HandlerFunc) {
		mux.Handle(pattern, middleware.Require(capability)(fn))
	}

	// --- 2. Usuários ---
	route("PATCH /v1/users/{id}/role", middleware.ManageUsers, h.User.SetRoleHandler)

	// --- 3. Catálogo ---
	route("GET /v1/products", middleware.ViewCatalog, h.Product.ListProductsHandler)
	route("GET /v1/products/{id}", middleware.ViewCatalog, h.Product.GetProductByIDHandler)
	route("POST /v1/products", middleware.ManageCatalog, h.Product.CreateProductHandler)
	route("PUT /v1/products/{id}", middleware.ManageCatalog, h.Product.UpdateProductHandler)
	route("DELETE /v1/products/{id}", middleware.ManageCatalog, h.Product.DeleteProductHandler)

	// --- 4. Estoque ---
	route("GET /v1/inventory", middleware.ViewInventory, h.Inventory.ListInventoryHandler)
	route("POST /v1/inventory", middleware.ManageInventory, h.Inventory.CreateInventoryHandler)
	route("PUT /v1/inventory/{id}", middleware.ManageInventory, h.Inventory.UpdateInventoryHandler)
	route("DELETE /v1/inventory/{id}", middleware.ManageInventory, h.Inventory.DeleteInventoryHandler)
	route("DELETE /v1/inventory", middleware.ManageInventory, h.Inventory.DeleteGroupHandler)

	// --- 5. Envios ---
	route("GET /v1/shipments", middleware.ViewShipments, h.Shipment.ListShipmentsHandler)
	route("GET /v1/shipments/{id}", middleware.ViewShipments, h.Shipment.GetShipmentHandler)
	route("POST /v1/shipments", middleware.ManageShipments, h.Shipment.CreateShipmentHandler)
	route("PATCH /v1/shipments/{id}", middleware.ManageShipments, h.Shipment.UpdateShipmentHandler)
	route("DELETE /v1/shipments/{id}", middleware.ManageShipments, h.Shipment.DeleteShipmentHandler)

	// --- 6. Solicitações ---
	route("POST /v1/inquiries", middleware.SubmitInquiry, h.Inquiry.SubmitInquiryHandler)
	route("GET /v1/inquiries", middleware.ManageInquiries, h.Inquiry.ListInquiriesHandler)
	route("PATCH /v1/inquiries/{id}", middleware.ManageInquiries, h.Inquiry.AdvanceInquiryHandler)
	route("DELETE /v1/inquiries/{id}", middleware.ManageInquiries, h.Inquiry.DeleteInquiryHandler)

	// --- 7. Middlewares globais ---
	var handler http.Handler = middleware.Metrics(opts.Metrics)(mux)
	handler = middleware.NewAuthMiddleware(opts.Tokens)(handler)
	if opts.Cache != nil && opts.RateLimit > 0 {
		handler = middleware.RateLimiter(opts.Cache, opts.RateLimit, opts.RateLimitPeriod, opts.Logger)(handler)
	}
	return handler
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}
