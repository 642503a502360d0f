package article

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/mohammad-safakhou/marketintel/internal/helpers"
	"github.com/mohammad-safakhou/marketintel/tools/web_fetch/models"
)

const maxBodyBytes = 5 << 20

// Fetch downloads a page over plain HTTP and extracts the readable article text.
type Fetch struct {
	Timeout  time.Duration
	MaxChars int
	Client   *http.Client
}

func (f Fetch) Exec(ctx context.Context, rawURL string) (models.Result, error) {
	u, err := helpers.FetchableURL(rawURL)
	if err != nil {
		return models.Result{URL: rawURL}, fmt.Errorf("fetch %q: %w", rawURL, err)
	}
	rawURL = u.String()

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	t0 := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return models.Result{}, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; marketintel/1.0)")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return models.Result{URL: rawURL}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	elapsed := func() int { return int(time.Since(t0) / time.Millisecond) }
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.Result{URL: rawURL, Status: resp.StatusCode, RenderMS: elapsed()}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}

	article, err := readability.FromReader(io.LimitReader(resp.Body, maxBodyBytes), u)
	if err != nil {
		return models.Result{URL: rawURL, Status: resp.StatusCode, RenderMS: elapsed()}, fmt.Errorf("extract %s: %w", rawURL, err)
	}

	text := helpers.Truncate(strings.TrimSpace(article.TextContent), f.MaxChars)
	return models.Result{
		URL:      rawURL,
		Title:    strings.TrimSpace(article.Title),
		Byline:   strings.TrimSpace(article.Byline),
		SiteName: article.SiteName,
		Text:     text,
		Status:   resp.StatusCode,
		RenderMS: elapsed(),
	}, nil
}
