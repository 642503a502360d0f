package web_search

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/marketintel/config"
	"github.com/mohammad-safakhou/marketintel/tools/web_search/models"
	"github.com/mohammad-safakhou/marketintel/tools/web_search/searxng"
	"github.com/mohammad-safakhou/marketintel/tools/web_search/tavily"
)

type WebSearcher interface {
	Discover(ctx context.Context, q models.Query) ([]models.Result, error)
}

type Provider string

const (
	NoneProvider    Provider = "none"
	SearxngProvider Provider = "searxng"
	TavilyProvider  Provider = "tavily"
)

var ErrUnsupportedProvider = fmt.Errorf("unsupported search provider")

// NewWebSearcher returns nil with no error for the "none" provider; search_web then always falls back.
func NewWebSearcher(cfg config.SearchConfig) (WebSearcher, error) {
	switch Provider(cfg.Provider) {
	case NoneProvider, "":
		return nil, nil
	case SearxngProvider:
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("searxng base url is missing")
		}
		return searxng.New(cfg.BaseURL, cfg.Timeout), nil
	case TavilyProvider:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		return tavily.New(cfg.APIKey, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProvider, cfg.Provider)
	}
}
