package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the service exports. Methods are nil-safe so
// components built without metrics (tests, the CLI) can skip the wiring.
type Metrics struct {
	RequestCount          *prometheus.CounterVec
	RequestDuration       *prometheus.HistogramVec
	TransactionsTotal     *prometheus.CounterVec
	TransactionDuration   *prometheus.HistogramVec
	CollateralTransitions *prometheus.CounterVec
	ValuationDuration     *prometheus.HistogramVec
	SweepDefaults         prometheus.Counter
	EventPublishFailures  *prometheus.CounterVec
}

func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		RequestCount: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		TransactionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transactions_total",
				Help: "Ledger entries written, by type and status.",
			},
			[]string{"type", "status"},
		),
		TransactionDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_transaction_duration_seconds",
				Help:    "Time spent applying a ledger operation.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		CollateralTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "collateral_transitions_total",
				Help: "Collateral status transitions.",
			},
			[]string{"from", "to"},
		),
		ValuationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "valuation_call_duration_seconds",
				Help:    "Valuation gateway call duration in seconds.",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"provider", "status"},
		),
		SweepDefaults: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "collateral_sweep_defaults_total",
				Help: "Collaterals defaulted by the due-date sweep.",
			},
		),
		EventPublishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_event_publish_failures_total",
				Help: "Ledger events that could not be published.",
			},
			[]string{"type"},
		),
	}
	registry.MustRegister(
		m.RequestCount,
		m.RequestDuration,
		m.TransactionsTotal,
		m.TransactionDuration,
		m.CollateralTransitions,
		m.ValuationDuration,
		m.SweepDefaults,
		m.EventPublishFailures,
	)
	return m
}

func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveRequest(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.RequestCount.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) IncTransaction(typ, status string) {
	if m == nil {
		return
	}
	m.TransactionsTotal.WithLabelValues(typ, status).Inc()
}

func (m *Metrics) ObserveOperation(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.TransactionDuration.WithLabelValues(op).Observe(d.Seconds())
}

func (m *Metrics) IncTransition(from, to string) {
	if m == nil {
		return
	}
	m.CollateralTransitions.WithLabelValues(from, to).Inc()
}

func (m *Metrics) ObserveValuation(provider, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.ValuationDuration.WithLabelValues(provider, status).Observe(d.Seconds())
}

func (m *Metrics) AddSweepDefaults(n int) {
	if m == nil {
		return
	}
	m.SweepDefaults.Add(float64(n))
}

func (m *Metrics) IncPublishFailure(typ string) {
	if m == nil {
		return
	}
	m.EventPublishFailures.WithLabelValues(typ).Inc()
}
