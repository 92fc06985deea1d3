package search

import (
	"context"
	"time"

	"github.com/go-shiori/go-readability"

	"github.com/cpl-agent/pkg/logger"
)

// FetchFunc returns the readable text of a page
type FetchFunc func(url string, timeout time.Duration) (string, error)

// ReadabilityFetch extracts the main text of a page with go-readability
func ReadabilityFetch(url string, timeout time.Duration) (string, error) {
	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", err
	}
	return article.TextContent, nil
}

// Enricher wraps a Searcher and fills PageText for results whose snippet is short
type Enricher struct {
	next     Searcher
	fetch    FetchFunc
	below    int
	timeout  time.Duration
	maxChars int
	logger   *logger.Logger
}

// NewEnricher creates an enriching searcher. below <= 0 disables enrichment
func NewEnricher(next Searcher, below int, timeout time.Duration, maxChars int, log *logger.Logger) *Enricher {
	return &Enricher{
		next:     next,
		fetch:    ReadabilityFetch,
		below:    below,
		timeout:  timeout,
		maxChars: maxChars,
		logger:   log.WithComponent("enricher"),
	}
}

// WithFetch replaces the page fetcher
func (e *Enricher) WithFetch(fetch FetchFunc) *Enricher {
	e.fetch = fetch
	return e
}

// Search runs the wrapped search and enriches short results. Fetch failures are logged and skipped
func (e *Enricher) Search(ctx context.Context, req *Request) (*Response, error) {
	resp, err := e.next.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if e.below <= 0 {
		return resp, nil
	}

	for i := range resp.Results {
		r := &resp.Results[i]
		if r.URL == "" || len(r.Content) >= e.below {
			continue
		}
		if ctx.Err() != nil {
			break
		}

		text, err := e.fetch(r.URL, e.timeout)
		if err != nil {
			e.logger.Debug().Err(err).Str("url", r.URL).Msg("Failed to fetch page text")
			continue
		}
		if e.maxChars > 0 && len([]rune(text)) > e.maxChars {
			text = string([]rune(text)[:e.maxChars])
		}
		r.PageText = text
	}

	return resp, nil
}
