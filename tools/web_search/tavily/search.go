package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mohammad-safakhou/marketintel/tools/web_search/models"
)

const DefaultEndpoint = "https://api.tavily.com/search"

type Search struct {
	ApiKey   string
	Endpoint string
	client   *http.Client
}

func New(apiKey string, timeout time.Duration) *Search {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Search{ApiKey: apiKey, Endpoint: DefaultEndpoint, client: &http.Client{Timeout: timeout}}
}

type searchRequest struct {
	Query       string `json:"query"`
	SearchDepth string `json:"search_depth,omitempty"`
	Topic       string `json:"topic,omitempty"`
	MaxResults  int    `json:"max_results,omitempty"`
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
}

type searchResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title         string  `json:"title"`
		URL           string  `json:"url"`
		Content       string  `json:"content"`
		Score         float64 `json:"score"`
		PublishedDate string  `json:"published_date"`
	} `json:"results"`
}

func (s *Search) Discover(ctx context.Context, q models.Query) ([]models.Result, error) {
	payload := searchRequest{
		Query:       q.Q,
		SearchDepth: "basic",
		Topic:       q.Topic,
		MaxResults:  q.MaxResults,
		StartDate:   q.StartDate,
		EndDate:     q.EndDate,
	}
	if payload.Topic == "" {
		payload.Topic = "general"
	}
	if payload.MaxResults == 0 {
		payload.MaxResults = 5
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tavily api error (status %d): %s", resp.StatusCode, string(raw))
	}

	var sr searchResponse
	if err := json.Unmarshal(raw, &sr); err != nil {
		return nil, fmt.Errorf("unmarshal response failed: %w", err)
	}
	out := make([]models.Result, 0, len(sr.Results))
	for _, r := range sr.Results {
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
