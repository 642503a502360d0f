package web_fetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mohammad-safakhou/marketintel/tools/web_fetch/article"
	"github.com/mohammad-safakhou/marketintel/tools/web_fetch/models"
)

const (
	DefaultTimeout  = 15 * time.Second
	MaxCharsDefault = 20000
)

type WebFetcher interface {
	Exec(ctx context.Context, url string) (models.Result, error)
}

// NewWebFetcher returns the readability-based fetcher.
func NewWebFetcher(timeout time.Duration, maxChars int) WebFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxChars <= 0 {
		maxChars = MaxCharsDefault
	}
	return article.Fetch{Timeout: timeout, MaxChars: maxChars}
}

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// Clean strips every HTML element from raw and collapses runs of whitespace.
func Clean(raw string) string {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	return strings.Join(strings.Fields(strictPolicy.Sanitize(s)), " ")
}
