package models

// Query is a single web search request.
type Query struct {
	Q          string
	MaxResults int
	Topic      string // "news" or "general"
	StartDate  string // YYYY-MM-DD, optional
	EndDate    string // YYYY-MM-DD, optional
}

type Result struct {
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Snippet     string  `json:"snippet"`
	PublishedAt string  `json:"published_at"`
	Score       float64 `json:"score"`
}
