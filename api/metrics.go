/*
metrics.go - Prometheus collectors for the collection server

PURPOSE:
  Exposes the state of the active roster and the traffic of the API on
  /metrics. Collectors are registered on a private registry so tests can
  build as many servers as they like without clashing on the default one.

COLLECTORS:
  cuotas_roster_imports_total         Imports accepted (by source format)
  cuotas_payments_recorded_total      Paid amount edits (by kind: set, toggle)
  cuotas_participants                 Participants in the active roster
  cuotas_collected_amount             Sum of paid amounts in the active roster
  cuotas_delinquent_participants      Delinquent participants as of the last check
  cuotas_overdue_installments         Highest overdue installment as of the last check
  cuotas_http_requests_total          Requests by route pattern, method and status
  cuotas_http_request_duration_seconds Request latency by route pattern

SEE ALSO:
  - server.go: Mounts the /metrics handler and the instrumentation middleware
  - monitor.go: Updates the delinquency gauges
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/warp/cuota-ledger/ledger"
)

const metricsNamespace = "cuotas"

// Metrics holds the collectors of one server.
type Metrics struct {
	Registry *prometheus.Registry

	Imports      *prometheus.CounterVec
	Payments     *prometheus.CounterVec
	Participants prometheus.Gauge
	Collected    prometheus.Gauge
	Delinquent   prometheus.Gauge
	Overdue      prometheus.Gauge

	Requests        *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "roster_imports_total",
			Help:      "Roster imports accepted, by source format.",
		}, []string{"format"}),
		Payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "payments_recorded_total",
			Help:      "Paid amount edits, by kind.",
		}, []string{"kind"}),
		Participants: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "participants",
			Help:      "Participants in the active roster.",
		}),
		Collected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "collected_amount",
			Help:      "Sum of paid amounts in the active roster.",
		}),
		Delinquent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "delinquent_participants",
			Help:      "Delinquent participants as of the last check.",
		}),
		Overdue: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "overdue_installments",
			Help:      "Highest overdue installment number as of the last check.",
		}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Imports, m.Payments,
		m.Participants, m.Collected, m.Delinquent, m.Overdue,
		m.Requests, m.RequestDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// ObserveRoster sets the roster gauges from aggregated totals.
func (m *Metrics) ObserveRoster(t ledger.Totals) {
	m.Participants.Set(float64(t.Participants))
	m.Collected.Set(float64(t.Collected))
}

// Instrument counts and times every request by its chi route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.Requests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}
