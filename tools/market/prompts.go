package market

import (
	"encoding/json"
	"fmt"

	"github.com/mohammad-safakhou/marketintel/models"
)

// QueryPrompt asks the model for exactly n search queries as a JSON array.
func QueryPrompt(q models.Query, n int) string {
	focus := q.Focus
	if focus == "" {
		focus = "general"
	}
	return fmt.Sprintf(`You are a market research assistant.

Your task:
Generate exactly %d high-quality web search queries.

Context:
Industry: %s
Date range: %s to %s
Focus: %s

Requirements:
- Return ONLY a JSON array of strings
- No explanation, no markdown, no extra text
- Each query must be realistic and specific

Example format:
["NBFC regulatory updates India January 2026", "RBI circular NBFC compliance changes", "NBFC fintech competition trends 2026"]

Now generate the JSON array.`, n, q.Industry, q.FromDate, q.ToDate, focus)
}

func entitiesPrompt(text string) string {
	return fmt.Sprintf(`Extract structured entities from the text.

Return ONLY valid JSON. No explanations.

Schema:
{"competitors": ["Company A", "Company B"], "themes": ["regulation", "compliance", "risk"], "pricing_models": []}

Text:
%s`, text)
}

func impactPrompt(item models.SearchResult, scope map[string]any) string {
	ctx, _ := json.Marshal(scope)
	return fmt.Sprintf(`You are a financial market impact analyst.

Return ONLY valid JSON.

Schema:
{"event": %q, "impact_level": "High or Medium or Low", "score": number between 0 and 100, "why": ["specific business reason", "specific business reason"], "actions": ["clear action", "clear action"]}

Event: %s
Context: %s`, item.Title, item.Title, string(ctx))
}

func reportPrompt(in ReportInput) string {
	competitors, _ := json.Marshal(in.Competitors)
	items, _ := json.Marshal(in.ImpactItems)
	sources, _ := json.Marshal(in.Sources)
	industry := in.Industry
	if industry == "" {
		industry = DefaultIndustry
	}
	return fmt.Sprintf(`You are a market intelligence strategist covering the %s sector.

Return ONLY valid JSON. No explanations.

Schema:
{
  "summary": "...",
  "drivers": ["...", "...", "..."],
  "competitors": %s,
  "impact_radar": %s,
  "opportunities": ["...", "...", "...", "...", "..."],
  "risks": ["...", "...", "...", "...", "..."],
  "90_day_plan": {"0_30": ["...", "..."], "30_60": ["...", "..."], "60_90": ["...", "..."]},
  "sources": %s
}`, industry, competitors, items, sources)
}
