package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammad-safakhou/marketintel/config"
	"github.com/mohammad-safakhou/marketintel/internal/capability"
	"github.com/mohammad-safakhou/marketintel/internal/logger"
	"github.com/mohammad-safakhou/marketintel/internal/metrics"
	"github.com/mohammad-safakhou/marketintel/models"
	"github.com/mohammad-safakhou/marketintel/provider"
	"github.com/mohammad-safakhou/marketintel/tools/market"
	searchmodels "github.com/mohammad-safakhou/marketintel/tools/web_search/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingGenerator struct{}

func (failingGenerator) Generate(context.Context, provider.Request) (string, error) {
	return "", errors.New("connection refused")
}

type cannedGenerator string

func (c cannedGenerator) Generate(context.Context, provider.Request) (string, error) {
	return string(c), nil
}

type downInvoker struct{ calls []string }

func (d *downInvoker) Invoke(_ context.Context, name string, _ capability.Args) capability.Result {
	d.calls = append(d.calls, name)
	return capability.Result{Kind: capability.Unavailable, Reason: "tool server unreachable"}
}

func localTools(t *testing.T) *capability.Registry {
	t.Helper()
	reg := capability.NewRegistry(logger.Discard(), nil)
	ts := market.NewToolset(market.WithLogger(logger.Discard()), market.WithGenerator(failingGenerator{}))
	require.NoError(t, ts.Register(reg))
	return reg
}

var query = models.Query{Industry: "NBFC", FromDate: "2026-01-01", ToDate: "2026-01-31"}

func TestRunWithEveryBackendDown(t *testing.T) {
	m := metrics.New()
	o := New(localTools(t), WithGenerator(failingGenerator{}), WithLogger(logger.Discard()), WithMetrics(m))

	var states []State
	report := o.Run(context.Background(), query, func(s State, _ int) { states = append(states, s) })

	assert.Equal(t, []State{StateCollecting, StateExtracting, StateScoring, StateWriting, StateDone}, states)
	assert.NotEmpty(t, report.Summary)
	assert.Len(t, report.Drivers, 5)
	assert.Len(t, report.Opportunities, 5)
	assert.Len(t, report.Risks, 5)
	assert.Equal(t, []string{"Bajaj Finance", "Paytm Payments Bank"}, report.Competitors)
	// three fallback queries, two fallback results each
	assert.Len(t, report.Sources, 6)
	assert.Len(t, report.ImpactRadar, 10)
	for _, item := range report.ImpactRadar {
		assert.True(t, item.ImpactLevel.Valid())
		assert.GreaterOrEqual(t, item.Score, 50)
	}
	assert.Equal(t, float64(1), counterValue(t, m, "marketintel_pipeline_runs_total"))
}

func TestRunWithToolServerDown(t *testing.T) {
	tools := &downInvoker{}
	o := New(tools, WithLogger(logger.Discard()))
	report := o.Run(context.Background(), query, nil)

	assert.Equal(t, []string{
		market.ToolSearchWeb, market.ToolSearchWeb, market.ToolSearchWeb,
		market.ToolExtractEntities, market.ToolMarketReport,
	}, tools.calls)
	assert.Empty(t, report.Sources)
	assert.NotNil(t, report.Sources)
	assert.Empty(t, report.Competitors)
	require.Len(t, report.ImpactRadar, 10)
	for _, item := range report.ImpactRadar {
		assert.Equal(t, market.PlaceholderImpact(), item)
	}
}

func TestRunScoresUnreachableImpactAsUnscored(t *testing.T) {
	reg := capability.NewRegistry(logger.Discard(), nil)
	ts := market.NewToolset(market.WithLogger(logger.Discard()))
	require.NoError(t, ts.Register(reg))
	inv := invokerFunc(func(ctx context.Context, name string, args capability.Args) capability.Result {
		if name == market.ToolImpactScore {
			return capability.Result{Kind: capability.NotFound, Reason: "tool not found: " + name}
		}
		return reg.Invoke(ctx, name, args)
	})
	report := New(inv, WithLogger(logger.Discard()), WithConfig(config.PipelineConfig{QueryCount: 1, MinImpactItems: 3})).
		Run(context.Background(), query, nil)

	require.Len(t, report.ImpactRadar, 3)
	assert.Equal(t, 40, report.ImpactRadar[0].Score)
	assert.Equal(t, models.ImpactLow, report.ImpactRadar[0].ImpactLevel)
	assert.Equal(t, "https://example.com/article1", report.ImpactRadar[0].URL)
	assert.Equal(t, report.ImpactRadar[1], report.ImpactRadar[2])
	assert.Len(t, report.Sources, 2)
}

type fixedSearcher []searchmodels.Result

func (f fixedSearcher) Discover(context.Context, searchmodels.Query) ([]searchmodels.Result, error) {
	return f, nil
}

func TestRunPadsFewResultsWithCopiesOfTheLast(t *testing.T) {
	reg := capability.NewRegistry(logger.Discard(), nil)
	ts := market.NewToolset(
		market.WithLogger(logger.Discard()),
		market.WithGenerator(failingGenerator{}),
		market.WithSearcher(fixedSearcher{
			{Title: "Lender raises rates", URL: "https://example.com/u1"},
			{Title: "RBI compliance circular", URL: "https://example.com/u2"},
			{Title: "Fintech partnership", URL: "https://example.com/u3"},
		}),
	)
	require.NoError(t, ts.Register(reg))

	report := New(reg, WithLogger(logger.Discard()), WithConfig(config.PipelineConfig{QueryCount: 1})).
		Run(context.Background(), query, nil)

	require.Len(t, report.Sources, 3)
	require.Len(t, report.ImpactRadar, DefaultMinImpactItems)
	urls := make([]string, 0, len(report.ImpactRadar))
	for _, item := range report.ImpactRadar {
		urls = append(urls, item.URL)
	}
	assert.Equal(t, []string{"https://example.com/u1", "https://example.com/u2", "https://example.com/u3"}, urls[:3])
	for _, item := range report.ImpactRadar[3:] {
		assert.Equal(t, report.ImpactRadar[2], item)
	}
}

type invokerFunc func(ctx context.Context, name string, args capability.Args) capability.Result

func (f invokerFunc) Invoke(ctx context.Context, name string, args capability.Args) capability.Result {
	return f(ctx, name, args)
}

func TestQueriesRepair(t *testing.T) {
	cases := []struct {
		name string
		out  string
		want []string
	}{
		{"exact", `["a", "b", "c"]`, []string{"a", "b", "c"}},
		{"truncated", `Here you go: ["a", "b", "c", "d"]`, []string{"a", "b", "c"}},
		{"filled", `["a"]`, []string{"a", "NBFC regulatory updates India", "NBFC RBI circular compliance changes"}},
		{"empty", `[]`, market.FallbackQueries("NBFC")},
		{"not strings", `[1, 2, 3]`, market.FallbackQueries("NBFC")},
		{"prose", `I cannot help with that`, market.FallbackQueries("NBFC")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := New(nil, WithGenerator(cannedGenerator(tc.out)), WithLogger(logger.Discard()))
			assert.Equal(t, tc.want, o.Queries(context.Background(), query))
		})
	}

	o := New(nil, WithLogger(logger.Discard()))
	assert.Equal(t, market.FallbackQueries("NBFC"), o.Queries(context.Background(), query))
}

func TestPad(t *testing.T) {
	got := Pad(nil, 10)
	require.Len(t, got, 10)
	assert.Equal(t, "No reliable events extracted", got[9].Event)

	items := []models.ImpactItem{{Event: "a"}, {Event: "b"}}
	got = Pad(items, 4)
	assert.Equal(t, []string{"a", "b", "b", "b"}, events(got))

	long := make([]models.ImpactItem, 12)
	assert.Len(t, Pad(long, 10), 12)
}

func TestDedupe(t *testing.T) {
	assert.Equal(t, []string{"b", "a", "c"}, Dedupe([]string{"b", "a", "b", "c", "a"}))
	assert.NotNil(t, Dedupe(nil))
}

func events(items []models.ImpactItem) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Event)
	}
	return out
}

func counterValue(t *testing.T, m *metrics.Metrics, name string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name && len(mf.GetMetric()) > 0 {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	require.FailNow(t, "metric not found", name)
	return 0
}
