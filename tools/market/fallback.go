package market

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/mohammad-safakhou/marketintel/models"
)

// SampleText is the representative passage fed to extract_entities.
const SampleText = "RBI introduced new compliance guidelines affecting NBFCs such as Bajaj Finance and Paytm Payments Bank. These regulations are expected to increase operational costs."

// FallbackArticleText is returned by fetch_url when the page cannot be retrieved.
const FallbackArticleText = "RBI introduced new compliance guidelines impacting NBFCs such as Bajaj Finance and Paytm Payments Bank. These regulations are expected to increase operational costs and push firms toward stronger governance and risk controls."

// DefaultIndustry names the sector when a caller does not.
const DefaultIndustry = "NBFC"

var regulatoryKeywords = []string{"rbi", "regulation", "compliance", "guideline"}

// FallbackSearch returns two deterministic results built from the query.
func FallbackSearch(query string) []models.SearchResult {
	return []models.SearchResult{
		{Title: fmt.Sprintf("RBI update impacts %s", query), URL: "https://example.com/article1"},
		{Title: fmt.Sprintf("%s sector faces regulatory pressure", query), URL: "https://example.com/article2"},
	}
}

// FallbackQueries are used when the model does not produce search queries.
func FallbackQueries(industry string) []string {
	return []string{
		fmt.Sprintf("%s regulatory updates India", industry),
		fmt.Sprintf("%s RBI circular compliance changes", industry),
		fmt.Sprintf("%s market trends fintech competition", industry),
	}
}

// FallbackEntities is the canned entity set for the NBFC sample.
func FallbackEntities() models.Entities {
	return models.Entities{
		Competitors:   []string{"Bajaj Finance", "Paytm Payments Bank"},
		Themes:        []string{"regulation", "compliance", "risk"},
		PricingModels: []string{},
	}
}

// IsRegulatory reports whether title mentions a regulatory keyword, case-insensitively.
func IsRegulatory(title string) bool {
	t := strings.ToLower(title)
	for _, kw := range regulatoryKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}

// FallbackImpact scores item by keyword banding: High in [75,90] for regulatory
// titles, Medium in [50,70] otherwise. rng may be nil.
func FallbackImpact(item models.SearchResult, rng *rand.Rand) models.ImpactItem {
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	if IsRegulatory(item.Title) {
		return models.ImpactItem{
			Event:       item.Title,
			ImpactLevel: models.ImpactHigh,
			Score:       75 + intn(16),
			Why:         []string{"Introduces operational and compliance burden", "May require policy and workflow changes"},
			Actions:     []string{"Conduct internal compliance audit", "Update governance and risk processes"},
			URL:         item.URL,
		}
	}
	return models.ImpactItem{
		Event:       item.Title,
		ImpactLevel: models.ImpactMedium,
		Score:       50 + intn(21),
		Why:         []string{"Relevant to sector monitoring"},
		Actions:     []string{"Track developments"},
		URL:         item.URL,
	}
}

// FallbackReport assembles the template report around the caller's data.
// An empty industry defaults to NBFC.
func FallbackReport(industry string, competitors []string, items []models.ImpactItem, sources []string) models.Report {
	if strings.TrimSpace(industry) == "" {
		industry = DefaultIndustry
	}
	if competitors == nil {
		competitors = []string{}
	}
	if items == nil {
		items = []models.ImpactItem{}
	}
	if sources == nil {
		sources = []string{}
	}
	return models.Report{
		Summary: fmt.Sprintf("The %s sector is experiencing notable developments driven by regulatory changes and competitive pressure. Organizations must adapt operations and strategy accordingly.", industry),
		Drivers: []string{
			"Regulatory tightening by financial authorities",
			"Increased competition from fintech players",
			"Digital adoption across lending workflows",
			"Risk management modernization",
			"Customer demand for faster credit",
		},
		Competitors: competitors,
		ImpactRadar: items,
		Opportunities: []string{
			"Automation of credit assessment workflows",
			"Partnerships with fintech platforms",
			"Expansion into underserved customer segments",
			"Launch of digital-first loan products",
			"Data-driven personalization of offerings",
		},
		Risks: []string{
			"Rising compliance and audit requirements",
			"Margin pressure due to competition",
			"Operational risk from legacy systems",
			"Cybersecurity vulnerabilities",
			"Macroeconomic credit slowdown",
		},
		Plan: models.Plan{
			Days0To30:  []string{"Review compliance posture", "Identify high-risk operational gaps"},
			Days30To60: []string{"Define technology modernization roadmap", "Explore fintech partnerships"},
			Days60To90: []string{"Pilot new digital initiatives", "Scale successful process improvements"},
		},
		Sources: sources,
	}
}

// PlaceholderImpact stands in when no search result produced an impact item.
func PlaceholderImpact() models.ImpactItem {
	return models.ImpactItem{
		Event:       "No reliable events extracted",
		ImpactLevel: models.ImpactLow,
		Score:       30,
		Why:         []string{"Insufficient data from sources"},
		Actions:     []string{"Retry with different query"},
		URL:         "",
	}
}

// UnscoredImpact is used when the impact tool itself could not be reached.
func UnscoredImpact(item models.SearchResult) models.ImpactItem {
	return models.ImpactItem{
		Event:       item.Title,
		ImpactLevel: models.ImpactLow,
		Score:       40,
		Why:         []string{"Unable to compute impact"},
		Actions:     []string{"Monitor situation"},
		URL:         item.URL,
	}
}
