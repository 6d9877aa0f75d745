package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics reúne as métricas do ledger. Um *Metrics nil é válido e não registra nada,
// o que deixa os serviços usáveis nos testes sem registry.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	LedgerOperations   *prometheus.CounterVec
	ShipmentOperations *prometheus.CounterVec
	InsufficientStock  prometheus.Counter
	CacheLookups       *prometheus.CounterVec
}

// New cria as métricas num registry próprio.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: registry}

	m.HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total de requisições HTTP",
		},
		[]string{"method", "path", "status"},
	)

	m.HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duração das requisições HTTP em segundos",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	m.LedgerOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ledger_operations_total",
			Help:      "Operações do stock ledger por tipo e resultado",
		},
		[]string{"operation", "result"},
	)

	m.ShipmentOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "shipment_operations_total",
			Help:      "Operações de envio por tipo e resultado",
		},
		[]string{"operation", "result"},
	)

	m.InsufficientStock = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insufficient_stock_total",
			Help:      "Reservas recusadas por falta de estoque",
		},
	)

	m.CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_lookups_total",
			Help:      "Consultas ao cache por chave lógica e resultado (hit, miss, error)",
		},
		[]string{"cache", "result"},
	)

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.LedgerOperations,
		m.ShipmentOperations,
		m.InsufficientStock,
		m.CacheLookups,
	)

	return m
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// ObserveLedger conta uma operação do ledger.
func (m *Metrics) ObserveLedger(operation string, err error) {
	if m == nil {
		return
	}
	m.LedgerOperations.WithLabelValues(operation, result(err)).Inc()
}

// ObserveShipment conta uma operação de envio.
func (m *Metrics) ObserveShipment(operation string, err error) {
	if m == nil {
		return
	}
	m.ShipmentOperations.WithLabelValues(operation, result(err)).Inc()
}

// IncInsufficientStock conta uma reserva recusada.
func (m *Metrics) IncInsufficientStock() {
	if m == nil {
		return
	}
	m.InsufficientStock.Inc()
}

// ObserveCache conta um hit, miss ou erro de cache.
func (m *Metrics) ObserveCache(cache, outcome string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(cache, outcome).Inc()
}

// ObserveHTTP registra uma requisição concluída.
func (m *Metrics) ObserveHTTP(method, path string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
}

// Handler expõe o registry no formato do Prometheus.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
