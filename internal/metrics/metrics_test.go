package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCountersAndHandler(t *testing.T) {
	m := New()
	m.ToolInvoked("search_web", "success")
	m.ToolInvoked("search_web", "success")
	m.ToolFallback("impact_score")
	m.Generation("error")
	m.PipelineRun()
	m.ObserveStage("scoring", 150*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.toolInvocations.WithLabelValues("search_web", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.toolFallbacks.WithLabelValues("impact_score")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	for _, name := range []string{"marketintel_tool_invocations_total", "marketintel_pipeline_runs_total", "marketintel_pipeline_stage_seconds"} {
		assert.Contains(t, body, name)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ToolInvoked("x", "success")
		m.ToolFallback("x")
		m.Generation("ok")
		m.PipelineRun()
		m.ObserveStage("x", time.Second)
	})
	assert.Nil(t, m.Registry())
}
