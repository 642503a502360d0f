package searxng

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/mohammad-safakhou/marketintel/tools/web_search/models"
)

// Search queries a SearXNG instance's JSON API.
type Search struct {
	BaseURL string
	client  *http.Client
}

func New(baseURL string, timeout time.Duration) *Search {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Search{BaseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

type searchResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		PublishedDate string  `json:"publishedDate"`
		Score         float64 `json:"score"`
	} `json:"results"`
}

func (s *Search) Discover(ctx context.Context, q models.Query) ([]models.Result, error) {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	u.Path = "/search"

	params := u.Query()
	params.Set("q", q.Q)
	params.Set("format", "json")
	if q.Topic == "news" {
		params.Set("categories", "news")
	} else {
		params.Set("categories", "general")
	}
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; marketintel/1.0)")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("searxng api error (status %d): %s", resp.StatusCode, string(body))
	}

	var raw searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response failed: %w", err)
	}

	out := make([]models.Result, 0, len(raw.Results))
	for _, r := range raw.Results {
		if q.MaxResults > 0 && len(out) >= q.MaxResults {
			break
		}
		out = append(out, models.Result{
			Title:       r.Title,
			URL:         r.URL,
			Snippet:     r.Content,
			PublishedAt: r.PublishedDate,
			Score:       r.Score,
		})
	}
	return out, nil
}
