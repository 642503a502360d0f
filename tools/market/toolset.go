// Package market holds the market intelligence tools. Every tool returns a
// well-formed value: when the generation or search backend is missing, fails,
// or answers with something unparseable, the tool substitutes its fallback.
package market

import (
	"context"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/mohammad-safakhou/marketintel/internal/extract"
	"github.com/mohammad-safakhou/marketintel/internal/logger"
	"github.com/mohammad-safakhou/marketintel/internal/metrics"
	"github.com/mohammad-safakhou/marketintel/models"
	"github.com/mohammad-safakhou/marketintel/provider"
	"github.com/mohammad-safakhou/marketintel/tools/web_fetch"
	"github.com/mohammad-safakhou/marketintel/tools/web_search"
	searchmodels "github.com/mohammad-safakhou/marketintel/tools/web_search/models"
	"github.com/sirupsen/logrus"
)

// Tool names as exposed by the registry.
const (
	ToolSearchWeb       = "search_web"
	ToolFetchURL        = "fetch_url"
	ToolCleanExtract    = "clean_extract"
	ToolExtractEntities = "extract_entities"
	ToolImpactScore     = "impact_score"
	ToolMarketReport    = "generate_market_report"
)

// GenerationParams are applied to every model call the tools make.
type GenerationParams struct {
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// DefaultGenerationParams matches the small local model the tools were tuned for.
var DefaultGenerationParams = GenerationParams{Temperature: 0.2, MaxTokens: 250, TopP: 0.9}

// Toolset carries the backends the tools call. Any backend may be nil, in which
// case the corresponding tool always answers with its fallback.
type Toolset struct {
	Generator  provider.Generator
	Searcher   web_search.WebSearcher
	Fetcher    web_fetch.WebFetcher
	Params     GenerationParams
	MaxResults int
	Log        logrus.FieldLogger
	Metrics    *metrics.Metrics

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Toolset.
type Option func(*Toolset)

func WithGenerator(g provider.Generator) Option { return func(t *Toolset) { t.Generator = g } }
func WithSearcher(s web_search.WebSearcher) Option { return func(t *Toolset) { t.Searcher = s } }
func WithFetcher(f web_fetch.WebFetcher) Option { return func(t *Toolset) { t.Fetcher = f } }
func WithParams(p GenerationParams) Option { return func(t *Toolset) { t.Params = p } }
func WithLogger(l logrus.FieldLogger) Option { return func(t *Toolset) { t.Log = l } }
func WithMetrics(m *metrics.Metrics) Option { return func(t *Toolset) { t.Metrics = m } }
func WithRand(r *rand.Rand) Option { return func(t *Toolset) { t.rng = r } }
func WithMaxResults(n int) Option { return func(t *Toolset) { t.MaxResults = n } }

func NewToolset(opts ...Option) *Toolset {
	t := &Toolset{Params: DefaultGenerationParams, MaxResults: 5}
	for _, o := range opts {
		o(t)
	}
	if t.Log == nil {
		t.Log = logger.Default()
	}
	if t.rng == nil {
		t.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return t
}

func (t *Toolset) fallback(tool, reason string) {
	t.Log.WithFields(logrus.Fields{"tool": tool, "reason": reason}).Warn("using fallback")
	t.Metrics.ToolFallback(tool)
}

// generate returns "" when no backend is configured or the call fails.
func (t *Toolset) generate(ctx context.Context, tool, prompt string) string {
	if t.Generator == nil {
		t.Metrics.Generation("disabled")
		return ""
	}
	out, err := t.Generator.Generate(ctx, provider.Request{
		Prompt:      prompt,
		Temperature: t.Params.Temperature,
		MaxTokens:   t.Params.MaxTokens,
		TopP:        t.Params.TopP,
	})
	if err != nil {
		t.Log.WithField("tool", tool).WithError(err).Warn("generation backend unreachable")
		t.Metrics.Generation("error")
		return ""
	}
	t.Metrics.Generation("ok")
	return out
}

// SearchWeb runs query against the search backend.
func (t *Toolset) SearchWeb(ctx context.Context, query string) []models.SearchResult {
	if t.Searcher == nil {
		t.fallback(ToolSearchWeb, "no search backend")
		return FallbackSearch(query)
	}
	found, err := t.Searcher.Discover(ctx, searchmodels.Query{Q: query, MaxResults: t.MaxResults, Topic: "news"})
	if err != nil {
		t.Log.WithField("tool", ToolSearchWeb).WithError(err).Warn("search backend failed")
		t.fallback(ToolSearchWeb, "search error")
		return FallbackSearch(query)
	}
	out := make([]models.SearchResult, 0, len(found))
	for _, r := range found {
		out = append(out, models.SearchResult{Title: r.Title, URL: r.URL})
	}
	return out
}

// FetchURL returns the readable text of url, or canned article text when it cannot be fetched.
func (t *Toolset) FetchURL(ctx context.Context, url string) string {
	if t.Fetcher == nil {
		t.fallback(ToolFetchURL, "no fetcher")
		return FallbackArticleText
	}
	res, err := t.Fetcher.Exec(ctx, url)
	if err != nil || strings.TrimSpace(res.Text) == "" {
		if err != nil {
			t.Log.WithField("tool", ToolFetchURL).WithError(err).Warn("fetch failed")
		}
		t.fallback(ToolFetchURL, "fetch failed")
		return FallbackArticleText
	}
	return res.Text
}

// CleanExtract strips markup and surrounding whitespace.
func (t *Toolset) CleanExtract(raw string) string {
	return web_fetch.Clean(raw)
}

// ExtractEntities asks the model for competitors, themes and pricing models in text.
func (t *Toolset) ExtractEntities(ctx context.Context, text string) models.Entities {
	raw := t.generate(ctx, ToolExtractEntities, entitiesPrompt(text))
	var out models.Entities
	if !extract.Into(raw, extract.Object, &out) || out.Empty() {
		t.fallback(ToolExtractEntities, "unparseable output")
		return FallbackEntities()
	}
	return out.Normalize()
}

// ImpactScore rates a single search result. The url always comes from item.
func (t *Toolset) ImpactScore(ctx context.Context, item models.SearchResult, scope map[string]any) models.ImpactItem {
	raw := t.generate(ctx, ToolImpactScore, impactPrompt(item, scope))
	var parsed struct {
		Event       string   `json:"event"`
		ImpactLevel string   `json:"impact_level"`
		Score       *float64 `json:"score"`
		Why         []string `json:"why"`
		Actions     []string `json:"actions"`
	}
	if !extract.Into(raw, extract.Object, &parsed) || parsed.Score == nil {
		t.fallback(ToolImpactScore, "unparseable output")
		t.rngMu.Lock()
		defer t.rngMu.Unlock()
		return FallbackImpact(item, t.rng)
	}
	return t.normalizeImpact(item, parsed.Event, parsed.ImpactLevel, *parsed.Score, parsed.Why, parsed.Actions)
}

// normalizeImpact clamps the score to [0,100] and derives the level from the
// score band when the model's level is not a known value. A known level that
// disagrees with the band is kept and logged.
func (t *Toolset) normalizeImpact(item models.SearchResult, event, level string, score float64, why, actions []string) models.ImpactItem {
	s := int(math.Round(math.Max(0, math.Min(100, score))))
	lvl := models.ImpactLevel(normalizeLevel(level))
	band := models.LevelForScore(s)
	if !lvl.Valid() {
		lvl = band
	} else if lvl != band {
		t.Log.WithFields(logrus.Fields{"tool": ToolImpactScore, "level": lvl, "score": s}).Warn("impact level disagrees with score band")
	}
	if strings.TrimSpace(event) == "" {
		event = item.Title
	}
	if why == nil {
		why = []string{}
	}
	if actions == nil {
		actions = []string{}
	}
	return models.ImpactItem{Event: event, ImpactLevel: lvl, Score: s, Why: why, Actions: actions, URL: item.URL}
}

func normalizeLevel(level string) string {
	l := strings.ToLower(strings.TrimSpace(level))
	if l == "" {
		return ""
	}
	return strings.ToUpper(l[:1]) + l[1:]
}

// ReportInput is the data the report tool synthesizes from.
type ReportInput struct {
	Industry    string              `json:"industry,omitempty"`
	Competitors []string            `json:"competitors"`
	ImpactItems []models.ImpactItem `json:"impact_items"`
	Sources     []string            `json:"sources"`
}

// GenerateMarketReport asks the model for the narrative parts of the report.
// Competitors, impact radar and sources always reflect the caller's data.
func (t *Toolset) GenerateMarketReport(ctx context.Context, in ReportInput) models.Report {
	fb := FallbackReport(in.Industry, in.Competitors, in.ImpactItems, in.Sources)
	raw := t.generate(ctx, ToolMarketReport, reportPrompt(in))
	var parsed models.Report
	if !extract.Into(raw, extract.Object, &parsed) || strings.TrimSpace(parsed.Summary) == "" {
		t.fallback(ToolMarketReport, "unparseable output")
		return fb
	}
	parsed.Competitors = fb.Competitors
	parsed.ImpactRadar = fb.ImpactRadar
	parsed.Sources = fb.Sources
	if len(parsed.Drivers) == 0 {
		parsed.Drivers = fb.Drivers
	}
	if len(parsed.Opportunities) == 0 {
		parsed.Opportunities = fb.Opportunities
	}
	if len(parsed.Risks) == 0 {
		parsed.Risks = fb.Risks
	}
	if len(parsed.Plan.Days0To30)+len(parsed.Plan.Days30To60)+len(parsed.Plan.Days60To90) == 0 {
		parsed.Plan = fb.Plan
	}
	return parsed
}
