package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketintel"

// Metrics bundles the collectors for tool dispatch, generation and pipeline runs.
// All recording methods are safe on a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	toolInvocations *prometheus.CounterVec
	toolFallbacks   *prometheus.CounterVec
	generations     *prometheus.CounterVec
	pipelineRuns    prometheus.Counter
	stageSeconds    *prometheus.HistogramVec
}

// New creates a Metrics instance on its own registry, with Go and process collectors attached.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		toolInvocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_invocations_total",
			Help:      "Tool dispatches by tool name and result kind.",
		}, []string{"tool", "result"}),
		toolFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_fallbacks_total",
			Help:      "Times a tool answered with its deterministic fallback.",
		}, []string{"tool"}),
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_requests_total",
			Help:      "Language model calls by outcome.",
		}, []string{"outcome"}),
		pipelineRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pipeline_runs_total",
			Help:      "Completed pipeline runs.",
		}),
		stageSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pipeline_stage_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.toolInvocations,
		m.toolFallbacks,
		m.generations,
		m.pipelineRuns,
		m.stageSeconds,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ToolInvoked(tool, result string) {
	if m == nil {
		return
	}
	m.toolInvocations.WithLabelValues(tool, result).Inc()
}

func (m *Metrics) ToolFallback(tool string) {
	if m == nil {
		return
	}
	m.toolFallbacks.WithLabelValues(tool).Inc()
}

func (m *Metrics) Generation(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PipelineRun() {
	if m == nil {
		return
	}
	m.pipelineRuns.Inc()
}

func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.stageSeconds.WithLabelValues(stage).Observe(d.Seconds())
}
