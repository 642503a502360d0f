// Package pipeline runs the four market intelligence stages in order:
// collecting search results, extracting entities, scoring impact and writing
// the report. Every stage talks to the tools through a capability.Invoker, so
// the same orchestrator drives the in-process registry or a remote tool server.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/marketintel/config"
	"github.com/mohammad-safakhou/marketintel/internal/capability"
	"github.com/mohammad-safakhou/marketintel/internal/extract"
	"github.com/mohammad-safakhou/marketintel/internal/logger"
	"github.com/mohammad-safakhou/marketintel/internal/metrics"
	"github.com/mohammad-safakhou/marketintel/models"
	"github.com/mohammad-safakhou/marketintel/provider"
	"github.com/mohammad-safakhou/marketintel/tools/market"
	"github.com/sirupsen/logrus"
)

// State is the stage the orchestrator is currently in.
type State string

const (
	StateCollecting State = "collecting"
	StateExtracting State = "extracting"
	StateScoring    State = "scoring"
	StateWriting    State = "writing"
	StateDone       State = "done"
)

var progress = map[State]int{
	StateCollecting: 10,
	StateExtracting: 35,
	StateScoring:    60,
	StateWriting:    85,
	StateDone:       100,
}

// Observer is told about every state transition. It must not block.
type Observer func(state State, percent int)

const (
	DefaultQueryCount     = 3
	DefaultMinImpactItems = 10
)

// Orchestrator drives one run at a time per call; it holds no per-run state and
// is safe for concurrent use.
type Orchestrator struct {
	tools          capability.Invoker
	gen            provider.Generator
	params         market.GenerationParams
	queryCount     int
	minImpactItems int
	sampleText     string
	log            logrus.FieldLogger
	metrics        *metrics.Metrics
}

type Option func(*Orchestrator)

// WithGenerator sets the backend used to draft search queries. Without one the
// fallback queries are always used.
func WithGenerator(g provider.Generator) Option {
	return func(o *Orchestrator) { o.gen = g }
}

func WithParams(p market.GenerationParams) Option {
	return func(o *Orchestrator) { o.params = p }
}

// WithConfig applies the pipeline section of the configuration. Zero values keep the defaults.
func WithConfig(cfg config.PipelineConfig) Option {
	return func(o *Orchestrator) {
		if cfg.QueryCount > 0 {
			o.queryCount = cfg.QueryCount
		}
		if cfg.MinImpactItems > 0 {
			o.minImpactItems = cfg.MinImpactItems
		}
		if strings.TrimSpace(cfg.SampleText) != "" {
			o.sampleText = cfg.SampleText
		}
	}
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New creates an orchestrator that dispatches tools through tools.
func New(tools capability.Invoker, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		tools:          tools,
		params:         market.DefaultGenerationParams,
		queryCount:     DefaultQueryCount,
		minImpactItems: DefaultMinImpactItems,
		sampleText:     market.SampleText,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.Default()
	}
	return o
}

type run struct {
	*Orchestrator
	id      string
	log     logrus.FieldLogger
	observe Observer
}

func (r *run) enter(s State) {
	r.log.WithField("stage", s).Info("entering stage")
	if r.observe != nil {
		r.observe(s, progress[s])
	}
}

func (r *run) timed(stage State, fn func()) {
	start := time.Now()
	r.enter(stage)
	fn()
	r.metrics.ObserveStage(string(stage), time.Since(start))
}

// Run executes the full pipeline for q. It never fails: every stage that cannot
// reach its tool substitutes a deterministic result. observe may be nil.
func (o *Orchestrator) Run(ctx context.Context, q models.Query, observe Observer) models.Report {
	id := uuid.NewString()
	r := &run{
		Orchestrator: o,
		id:           id,
		log:          o.log.WithFields(logrus.Fields{"run_id": id, "industry": q.Industry}),
		observe:      observe,
	}

	var results []models.SearchResult
	r.timed(StateCollecting, func() { results = r.collect(ctx, q) })

	var entities models.Entities
	r.timed(StateExtracting, func() { entities = r.extractEntities(ctx) })

	var items []models.ImpactItem
	r.timed(StateScoring, func() { items = r.score(ctx, results, entities) })

	var report models.Report
	r.timed(StateWriting, func() { report = r.write(ctx, q, entities, items, results) })

	r.enter(StateDone)
	o.metrics.PipelineRun()
	r.log.WithFields(logrus.Fields{"results": len(results), "impact_items": len(report.ImpactRadar)}).Info("pipeline finished")
	return report
}

// Queries asks the backend for the search queries of q, repaired to exactly the configured count.
func (o *Orchestrator) Queries(ctx context.Context, q models.Query) []string {
	return (&run{Orchestrator: o, log: o.log}).queries(ctx, q)
}

func (r *run) queries(ctx context.Context, q models.Query) []string {
	fallback := market.FallbackQueries(q.Industry)
	var drafted []string
	if r.gen != nil {
		raw, err := r.gen.Generate(ctx, provider.Request{
			Prompt:      market.QueryPrompt(q, r.queryCount),
			Temperature: r.params.Temperature,
			MaxTokens:   r.params.MaxTokens,
			TopP:        r.params.TopP,
		})
		if err != nil {
			r.log.WithError(err).Warn("query generation failed")
			r.metrics.Generation("error")
		} else {
			r.metrics.Generation("ok")
			if !extract.Into(raw, extract.Array, &drafted) {
				drafted = nil
			}
		}
	} else {
		r.metrics.Generation("disabled")
	}

	out := make([]string, 0, r.queryCount)
	for _, d := range drafted {
		if s := strings.TrimSpace(d); s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		r.log.Warn("using fallback queries")
	}
	if len(out) > r.queryCount {
		out = out[:r.queryCount]
	}
	for i := 0; len(out) < r.queryCount; i++ {
		out = append(out, fallback[i%len(fallback)])
	}
	return out
}

func (r *run) collect(ctx context.Context, q models.Query) []models.SearchResult {
	results := make([]models.SearchResult, 0)
	for _, query := range r.queries(ctx, q) {
		res := r.tools.Invoke(ctx, market.ToolSearchWeb, capability.Args{"query": query})
		var found []models.SearchResult
		if !r.decode(market.ToolSearchWeb, res, &found) {
			continue
		}
		results = append(results, found...)
	}
	return results
}

func (r *run) extractEntities(ctx context.Context) models.Entities {
	res := r.tools.Invoke(ctx, market.ToolExtractEntities, capability.Args{"text": r.sampleText})
	var e models.Entities
	if !r.decode(market.ToolExtractEntities, res, &e) {
		return models.Entities{}.Normalize()
	}
	return e.Normalize()
}

func (r *run) score(ctx context.Context, results []models.SearchResult, entities models.Entities) []models.ImpactItem {
	scope := map[string]any{
		"competitors":    entities.Competitors,
		"themes":         entities.Themes,
		"pricing_models": entities.PricingModels,
	}
	items := make([]models.ImpactItem, 0, len(results))
	for _, res := range results {
		out := r.tools.Invoke(ctx, market.ToolImpactScore, capability.Args{
			"item":    map[string]any{"title": res.Title, "url": res.URL},
			"context": scope,
		})
		var item models.ImpactItem
		if !r.decode(market.ToolImpactScore, out, &item) {
			item = market.UnscoredImpact(res)
		}
		items = append(items, item)
	}
	return Pad(items, r.minImpactItems)
}

// Pad guarantees at least floor items: an empty list gets the placeholder item,
// and the last element is repeated until the floor is reached.
func Pad(items []models.ImpactItem, floor int) []models.ImpactItem {
	if len(items) == 0 {
		items = append(items, market.PlaceholderImpact())
	}
	for len(items) < floor {
		items = append(items, items[len(items)-1])
	}
	return items
}

func (r *run) write(ctx context.Context, q models.Query, entities models.Entities, items []models.ImpactItem, results []models.SearchResult) models.Report {
	competitors := Dedupe(entities.Competitors)
	sources := make([]string, 0, len(results))
	for _, res := range results {
		sources = append(sources, res.URL)
	}
	res := r.tools.Invoke(ctx, market.ToolMarketReport, capability.Args{
		"data": map[string]any{
			"industry":     q.Industry,
			"competitors":  competitors,
			"impact_items": items,
			"sources":      sources,
		},
	})
	var report models.Report
	if !r.decode(market.ToolMarketReport, res, &report) {
		return market.FallbackReport(q.Industry, competitors, items, sources)
	}
	return report
}

// Dedupe drops repeated strings, keeping first-appearance order.
func Dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func (r *run) decode(tool string, res capability.Result, dst any) bool {
	if !res.OK() {
		r.log.WithFields(logrus.Fields{"tool": tool, "result": res.Kind, "reason": res.Reason}).Warn("tool did not succeed, using stage fallback")
		return false
	}
	if err := res.DecodeValue(dst); err != nil {
		r.log.WithField("tool", tool).WithError(err).Warn("tool value did not decode, using stage fallback")
		return false
	}
	return true
}
