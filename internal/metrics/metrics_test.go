package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacit/stacit/backend/internal/metrics"
)

func TestNilMetrics_IsNoop(t *testing.T) {
	var m *metrics.Metrics

	assert.NotPanics(t, func() {
		m.ObserveHTTP("GET", "/stacs", "200", time.Millisecond)
		m.ObserveSuggestion(metrics.OutcomeOK, time.Second)
		m.ObserveSMS(metrics.OutcomeError)
		m.IncFinalized()
	})
}

func TestHandler_ExposesRecordedSeries(t *testing.T) {
	m := metrics.New()
	m.ObserveHTTP("GET", "/stacs/{id}", "200", 5*time.Millisecond)
	m.ObserveSuggestion(metrics.OutcomeError, time.Second)
	m.ObserveSMS(metrics.OutcomeSkipped)
	m.IncFinalized()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `stacit_http_requests_total{method="GET",route="/stacs/{id}",status="200"} 1`)
	assert.Contains(t, text, `stacit_suggestion_requests_total{outcome="error"} 1`)
	assert.Contains(t, text, `stacit_sms_sends_total{outcome="unavailable"} 1`)
	assert.Contains(t, text, "stacit_stacs_finalized_total 1")
	assert.Contains(t, text, "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		metrics.New()
		metrics.New()
	})
}
