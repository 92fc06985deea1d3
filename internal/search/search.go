package search

import "context"

// Searcher is a web search provider
type Searcher interface {
	Search(ctx context.Context, req *Request) (*Response, error)
}

// Request is a provider-independent search request
type Request struct {
	Query      string
	Topic      string // "news" or "general"
	MaxResults int
}

// Response holds the results of one search
type Response struct {
	Results []Result `json:"results"`
}

// Result is a single search hit
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	PageText      string  `json:"page_text,omitempty"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}
