package router_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/api/inquiry"
	"stockledger/internal/api/inventory"
	"stockledger/internal/api/product"
	"stockledger/internal/api/router"
	"stockledger/internal/api/shipment"
	"stockledger/internal/api/user"
	"stockledger/internal/domain"
	"stockledger/internal/pkg/cache"
	"stockledger/internal/pkg/logger"
	"stockledger/internal/pkg/metrics"
	"stockledger/internal/pkg/token"
	"stockledger/internal/repository/memrepo"
	"stockledger/internal/service/inventoryservice"
	"stockledger/internal/service/shipmentservice"
)

type server struct {
	t       *testing.T
	handler http.Handler
	tokens  *token.Service
}

func newServer(t *testing.T) *server {
	log := logger.NewNopLogger()
	store := memrepo.New()
	m := metrics.New("stockledger_test")
	view := inventoryservice.NewGroupedView(store.Inventory(), cache.NopClient{}, time.Minute, m, log)

	inventorySvc := inventoryservice.NewService(store, store.Inventory(), store.Shipments(), view, m, log)
	shipmentSvc := shipmentservice.NewService(store, store.Shipments(), store.Inventory(), view, m, log)
	tokens := token.NewService("router-test", time.Hour)

	h := router.NewRouter(router.Handlers{
		Product:   product.NewHandler(nil, log),
		User:      user.NewHandler(nil, log),
		Inventory: inventory.NewHandler(inventorySvc, log),
		Shipment:  shipment.NewHandler(shipmentSvc, log),
		Inquiry:   inquiry.NewHandler(nil, log),
	}, router.Options{Tokens: tokens, Metrics: m, Logger: log})

	return &server{t: t, handler: h, tokens: tokens}
}

func (s *server) bearer(role domain.UserRole) string {
	signed, err := s.tokens.GenerateToken(domain.User{ID: "user-" + string(role), Role: role})
	require.NoError(s.t, err)
	return "Bearer " + signed
}

func (s *server) do(method, path, auth string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestPingAndMetrics(t *testing.T) {
	s := newServer(t)

	ping := s.do(http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, ping.Code)
	assert.Equal(t, "pong", ping.Body.String())

	m := s.do(http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), "stockledger_test_http_requests_total")
}

func TestAccessControl(t *testing.T) {
	s := newServer(t)

	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/v1/inventory", "", nil).Code, "guest")
	assert.Equal(t, http.StatusUnauthorized, s.do(http.MethodGet, "/v1/inventory", "Bearer nope", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/v1/inventory", s.bearer(domain.RoleCustomer), nil).Code)
	assert.Equal(t, http.StatusForbidden, s.do(http.MethodGet, "/v1/shipments", s.bearer(domain.RoleCustomer), nil).Code)
	assert.Equal(t, http.StatusForbidden,
		s.do(http.MethodPost, "/v1/inventory", s.bearer(domain.RoleCustomer), map[string]interface{}{}).Code)
}

func TestInventoryAndShipmentFlow(t *testing.T) {
	s := newServer(t)
	admin := s.bearer(domain.RoleAdmin)

	created := s.do(http.MethodPost, "/v1/inventory", admin, map[string]interface{}{
		"name": "XR8000", "sku": "SKU-1", "family": "Edge", "part_number": "PN-1",
		"location": "ISV", "quantity": 5,
	})
	require.Equal(t, http.StatusCreated, created.Code, created.Body.String())
	var records []domain.StockRecord
	decode(t, created, &records)
	require.Len(t, records, 1)
	pool := records[0]

	short := s.do(http.MethodPost, "/v1/shipments", admin, map[string]interface{}{
		"po_number": "PO-1", "from": "ISV", "to": "Austin",
		"line_items": []map[string]interface{}{{"stock_record_id": pool.ID, "quantity": 9, "amount": 10}},
	})
	require.Equal(t, http.StatusUnprocessableEntity, short.Code, short.Body.String())
	var errBody domain.ErrorResponse
	decode(t, short, &errBody)
	assert.Equal(t, "INSUFFICIENT_STOCK", errBody.Category)
	assert.EqualValues(t, 5, errBody.Details["available"])
	assert.EqualValues(t, 9, errBody.Details["requested"])

	ok := s.do(http.MethodPost, "/v1/shipments", admin, map[string]interface{}{
		"po_number": "PO-1", "from": "ISV", "to": "Austin", "freight": "20",
		"line_items": []map[string]interface{}{{"stock_record_id": pool.ID, "quantity": 2, "amount": "100"}},
	})
	require.Equal(t, http.StatusCreated, ok.Code, ok.Body.String())
	var shipped map[string]interface{}
	decode(t, ok, &shipped)
	assert.Equal(t, "requested", shipped["status"])
	assert.Equal(t, "120", shipped["grand_total"])
	id := shipped["id"].(string)

	grouped := s.do(http.MethodGet, "/v1/inventory?grouped=true&location=ISV", s.bearer(domain.RoleCustomer), nil)
	require.Equal(t, http.StatusOK, grouped.Code)
	var groups []domain.GroupedInventory
	decode(t, grouped, &groups)
	require.Len(t, groups, 1)
	assert.Equal(t, 3, groups[0].TotalQuantity)

	canceled := s.do(http.MethodPatch, "/v1/shipments/"+id, admin, map[string]interface{}{"status": "canceled"})
	require.Equal(t, http.StatusOK, canceled.Code, canceled.Body.String())

	list := s.do(http.MethodGet, "/v1/inventory?location=ISV", admin, nil)
	decode(t, list, &records)
	require.Len(t, records, 1)
	assert.Equal(t, 5, records[0].Quantity)

	assert.Equal(t, http.StatusNoContent, s.do(http.MethodDelete, "/v1/shipments/"+id, admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do(http.MethodGet, "/v1/shipments/"+id, admin, nil).Code)
}

func TestBadRequests(t *testing.T) {
	s := newServer(t)
	admin := s.bearer(domain.RoleAdmin)

	unknown := s.do(http.MethodPost, "/v1/inventory", admin, map[string]interface{}{"nam": "typo"})
	assert.Equal(t, http.StatusBadRequest, unknown.Code)

	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/inventory?grouped=maybe", admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/inventory?location=Paris", admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodGet, "/v1/shipments?status=lost", admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(http.MethodDelete, "/v1/inventory?name=x", admin, nil).Code)
}
