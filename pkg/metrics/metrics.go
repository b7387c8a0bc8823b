package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonny/tradelens/backend/pkg/logger"
)

// Metrics owns a private Prometheus registry and the service's collectors
// ⭐ SSOT: 메트릭 정의는 여기서만
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	evaluations    *prometheus.CounterVec
	stageFallbacks *prometheus.CounterVec
	providerCalls  *prometheus.CounterVec
	breakerState   *prometheus.GaugeVec
}

// New creates the registry with Go runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{registry: reg}

	m.httpRequests = m.counterVec("tradelens_http_requests_total",
		"Total number of HTTP requests", "method", "route", "status")
	m.httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tradelens_http_request_duration_seconds",
		Help:    "HTTP request latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
	reg.MustRegister(m.httpDuration)

	m.evaluations = m.counterVec("tradelens_evaluations_total",
		"Trade intent evaluations by outcome", "outcome")
	m.stageFallbacks = m.counterVec("tradelens_stage_fallbacks_total",
		"Evaluation stages that fell back to a default", "stage")
	m.providerCalls = m.counterVec("tradelens_provider_calls_total",
		"Calls to external providers by result", "provider", "status")

	m.breakerState = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "tradelens_circuit_breaker_state",
		Help: "Circuit breaker state (0: closed, 1: half-open, 2: open)",
	}, []string{"name"})
	reg.MustRegister(m.breakerState)

	return m
}

func (m *Metrics) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	cv := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, labels)
	m.registry.MustRegister(cv)
	return cv
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, http.StatusText(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// Evaluation counts a finished evaluation (ok, rate_limited, invalid, error)
func (m *Metrics) Evaluation(outcome string) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(outcome).Inc()
}

// Fallback counts a stage that degraded to its default
func (m *Metrics) Fallback(stage string) {
	if m == nil {
		return
	}
	m.stageFallbacks.WithLabelValues(stage).Inc()
}

// ProviderCall counts a call to an external provider
func (m *Metrics) ProviderCall(provider, status string) {
	if m == nil {
		return
	}
	m.providerCalls.WithLabelValues(provider, status).Inc()
}

// BreakerState records a circuit breaker transition
func (m *Metrics) BreakerState(name string, state int) {
	if m == nil {
		return
	}
	m.breakerState.WithLabelValues(name).Set(float64(state))
}

// Registry exposes the registry (tests, custom collectors)
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on port until the returned shutdown func is called
func (m *Metrics) Serve(port string, log *logger.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.WithField("port", port).Info("Metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Metrics server error")
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.WithError(err).Error("Failed to shutdown metrics server")
		}
	}
}
