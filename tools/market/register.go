package market

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/marketintel/internal/capability"
	"github.com/mohammad-safakhou/marketintel/models"
)

// Cards describes every tool the Toolset provides.
func Cards() []capability.ToolCard {
	return []capability.ToolCard{
		{
			Name:        ToolSearchWeb,
			Description: "Searches the web for recent coverage of a query",
			Params:      []capability.Param{{Name: "query", Kind: capability.KindString, Required: true}},
			SideEffects: []string{"network"},
		},
		{
			Name:        ToolFetchURL,
			Description: "Fetches a page and returns its readable text",
			Params:      []capability.Param{{Name: "url", Kind: capability.KindString, Required: true}},
			SideEffects: []string{"network"},
		},
		{
			Name:        ToolCleanExtract,
			Description: "Strips markup and surrounding whitespace from raw text",
			Params:      []capability.Param{{Name: "raw_text", Kind: capability.KindString, Required: true}},
		},
		{
			Name:        ToolExtractEntities,
			Description: "Extracts competitors, themes and pricing models from text",
			Params:      []capability.Param{{Name: "text", Kind: capability.KindString, Required: true}},
		},
		{
			Name:        ToolImpactScore,
			Description: "Scores the business impact of a search result",
			Params: []capability.Param{
				{Name: "item", Kind: capability.KindObject, Required: true, Description: "search result {title, url}"},
				{Name: "context", Kind: capability.KindObject, Required: true, Description: "extracted entities"},
			},
		},
		{
			Name:        ToolMarketReport,
			Description: "Synthesizes the market intelligence report",
			Params: []capability.Param{
				{Name: "data", Kind: capability.KindObject, Required: true, Description: "{industry?, competitors, impact_items, sources}"},
			},
		},
	}
}

// Register adds every tool to reg.
func (t *Toolset) Register(reg *capability.Registry) error {
	funcs := map[string]capability.Func{
		ToolSearchWeb: func(ctx context.Context, args capability.Args) any {
			return t.SearchWeb(ctx, args.String("query"))
		},
		ToolFetchURL: func(ctx context.Context, args capability.Args) any {
			return t.FetchURL(ctx, args.String("url"))
		},
		ToolCleanExtract: func(_ context.Context, args capability.Args) any {
			return t.CleanExtract(args.String("raw_text"))
		},
		ToolExtractEntities: func(ctx context.Context, args capability.Args) any {
			return t.ExtractEntities(ctx, args.String("text"))
		},
		ToolImpactScore: func(ctx context.Context, args capability.Args) any {
			var item models.SearchResult
			if err := args.Decode("item", &item); err != nil {
				t.Log.WithField("tool", ToolImpactScore).WithError(err).Warn("item did not decode")
			}
			var scope map[string]any
			_ = args.Decode("context", &scope)
			return t.ImpactScore(ctx, item, scope)
		},
		ToolMarketReport: func(ctx context.Context, args capability.Args) any {
			var in ReportInput
			if err := args.Decode("data", &in); err != nil {
				t.Log.WithField("tool", ToolMarketReport).WithError(err).Warn("data did not decode")
			}
			return t.GenerateMarketReport(ctx, in)
		},
	}
	for _, card := range Cards() {
		fn, ok := funcs[card.Name]
		if !ok {
			return fmt.Errorf("no implementation for %s", card.Name)
		}
		if err := reg.Register(card, fn); err != nil {
			return err
		}
	}
	return nil
}
