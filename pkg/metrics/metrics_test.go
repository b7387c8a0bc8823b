package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Evaluation("ok")
		m.Fallback("sentiment")
		m.ProviderCall("alphavantage", "ok")
		m.ObserveHTTP(http.MethodGet, "/health", 200, time.Millisecond)
		m.BreakerState("gemini", 2)
	})
}

func TestCounters(t *testing.T) {
	m := New()
	m.Evaluation("ok")
	m.Evaluation("ok")
	m.Evaluation("rate_limited")
	m.Fallback("sentiment")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.evaluations.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evaluations.WithLabelValues("rate_limited")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.stageFallbacks.WithLabelValues("sentiment")))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ProviderCall("gemini", "error")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tradelens_provider_calls_total{provider="gemini",status="error"} 1`)
}
