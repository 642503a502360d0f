package models

import (
	"errors"
)

// ErrReportNotFound is returned when a report id is unknown or expired
var ErrReportNotFound = errors.New("report not found")

// ImpactLevel is the coarse band attached to an impact score.
type ImpactLevel string

const (
	ImpactLow    ImpactLevel = "Low"
	ImpactMedium ImpactLevel = "Medium"
	ImpactHigh   ImpactLevel = "High"
)

// Valid reports whether l is one of the three known levels.
func (l ImpactLevel) Valid() bool {
	switch l {
	case ImpactLow, ImpactMedium, ImpactHigh:
		return true
	}
	return false
}

// LevelForScore maps a 0..100 score to its band: Low < 50, Medium 50-74, High >= 75.
func LevelForScore(score int) ImpactLevel {
	switch {
	case score >= 75:
		return ImpactHigh
	case score >= 50:
		return ImpactMedium
	default:
		return ImpactLow
	}
}

type SearchResult struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

type Entities struct {
	Competitors   []string `json:"competitors"`
	Themes        []string `json:"themes"`
	PricingModels []string `json:"pricing_models"`
}

// Empty reports whether no entity of any kind was found.
func (e Entities) Empty() bool {
	return len(e.Competitors) == 0 && len(e.Themes) == 0 && len(e.PricingModels) == 0
}

// Normalize replaces nil slices with empty ones so the wire shape is stable.
func (e Entities) Normalize() Entities {
	if e.Competitors == nil {
		e.Competitors = []string{}
	}
	if e.Themes == nil {
		e.Themes = []string{}
	}
	if e.PricingModels == nil {
		e.PricingModels = []string{}
	}
	return e
}

type ImpactItem struct {
	Event       string      `json:"event" yaml:"event"`
	ImpactLevel ImpactLevel `json:"impact_level" yaml:"impact_level"`
	Score       int         `json:"score" yaml:"score"`
	Why         []string    `json:"why" yaml:"why"`
	Actions     []string    `json:"actions" yaml:"actions"`
	URL         string      `json:"url" yaml:"url"`
}

// Plan is the 90 day action plan split into three windows.
type Plan struct {
	Days0To30  []string `json:"0_30" yaml:"0_30"`
	Days30To60 []string `json:"30_60" yaml:"30_60"`
	Days60To90 []string `json:"60_90" yaml:"60_90"`
}

type Report struct {
	Summary       string       `json:"summary" yaml:"summary"`
	Drivers       []string     `json:"drivers" yaml:"drivers"`
	Competitors   []string     `json:"competitors" yaml:"competitors"`
	ImpactRadar   []ImpactItem `json:"impact_radar" yaml:"impact_radar"`
	Opportunities []string     `json:"opportunities" yaml:"opportunities"`
	Risks         []string     `json:"risks" yaml:"risks"`
	Plan          Plan         `json:"90_day_plan" yaml:"90_day_plan"`
	Sources       []string     `json:"sources" yaml:"sources"`
}

// Query is what a caller asks the pipeline to analyze.
type Query struct {
	Industry string `json:"industry" validate:"required"`
	FromDate string `json:"from_date" validate:"required"`
	ToDate   string `json:"to_date" validate:"required"`
	Focus    string `json:"focus,omitempty"`
}
