// Package metrics owns the Prometheus registry for the API server.
// Collectors are registered on a private registry rather than the global
// default so tests can build as many as they like.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome labels shared by the remote-call counters.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeSkipped = "unavailable"
)

// Metrics holds every collector the server records into.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
	suggestionRequests *prometheus.CounterVec
	suggestionDuration prometheus.Histogram
	smsSends           *prometheus.CounterVec
	stacsFinalized     prometheus.Counter
}

// New builds a registry with Go runtime collectors and the API collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stacit_http_requests_total",
			Help: "HTTP requests handled, partitioned by method, route pattern and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stacit_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		suggestionRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stacit_suggestion_requests_total",
			Help: "Calls to the suggestion endpoint by outcome.",
		}, []string{"outcome"}),
		suggestionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "stacit_suggestion_request_duration_seconds",
			Help:    "Latency of calls to the suggestion endpoint.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80},
		}),
		smsSends: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stacit_sms_sends_total",
			Help: "SMS share attempts by outcome.",
		}, []string{"outcome"}),
		stacsFinalized: f.NewCounter(prometheus.CounterOpts{
			Name: "stacit_stacs_finalized_total",
			Help: "STACs finalized with at least one selected option.",
		}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveHTTP records one handled request.
func (m *Metrics) ObserveHTTP(method, route, status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveSuggestion records one call to the suggestion endpoint.
func (m *Metrics) ObserveSuggestion(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.suggestionRequests.WithLabelValues(outcome).Inc()
	m.suggestionDuration.Observe(elapsed.Seconds())
}

// ObserveSMS records one share attempt.
func (m *Metrics) ObserveSMS(outcome string) {
	if m == nil {
		return
	}
	m.smsSends.WithLabelValues(outcome).Inc()
}

// IncFinalized counts a successful finalize.
func (m *Metrics) IncFinalized() {
	if m == nil {
		return
	}
	m.stacsFinalized.Inc()
}
