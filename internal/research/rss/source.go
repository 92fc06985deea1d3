package rss

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/research"
	"github.com/cpl-agent/pkg/logger"
	"github.com/cpl-agent/pkg/ratelimit"
)

// Source implements research.Source for a single RSS feed
type Source struct {
	name    string
	url     string
	maxAge  time.Duration
	parser  *gofeed.Parser
	limiter *ratelimit.MultiLimiter
	log     *logger.Logger
}

// New creates a new RSS source for a single feed
func New(feed config.RSSFeed, maxAge time.Duration, limiter *ratelimit.MultiLimiter, log *logger.Logger) *Source {
	return &Source{
		name:    feed.Name,
		url:     feed.URL,
		maxAge:  maxAge,
		parser:  gofeed.NewParser(),
		limiter: limiter,
		log:     log.WithSource("rss", feed.Name),
	}
}

// NewMultiple creates one source per configured feed
func NewMultiple(cfg config.ResearchConfig, limiter *ratelimit.MultiLimiter, log *logger.Logger) []*Source {
	maxAge := time.Duration(cfg.MaxAgeHours) * time.Hour
	sources := make([]*Source, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		sources = append(sources, New(feed, maxAge, limiter, log))
	}
	return sources
}

// Name returns the source name
func (s *Source) Name() string {
	return s.name
}

// Type returns "rss"
func (s *Source) Type() string {
	return "rss"
}

// Fetch retrieves recent items from the feed
func (s *Source) Fetch(ctx context.Context) ([]*research.Item, error) {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx, ratelimit.LimiterRSS); err != nil {
			return nil, fmt.Errorf("rate limit error: %w", err)
		}
	}

	s.log.Debug().Str("url", s.url).Msg("Fetching RSS feed")

	feed, err := s.parser.ParseURLWithContext(s.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RSS feed %s: %w", s.name, err)
	}

	items := make([]*research.Item, 0, len(feed.Items))
	for _, entry := range feed.Items {
		if entry.Link == "" {
			continue
		}

		publishedAt := time.Now()
		if entry.PublishedParsed != nil {
			publishedAt = *entry.PublishedParsed
			if s.maxAge > 0 && time.Since(publishedAt) > s.maxAge {
				continue
			}
		}

		items = append(items, &research.Item{
			ID:          research.ItemID(s.Type(), entry.Link),
			Title:       cleanText(entry.Title),
			Description: cleanText(entry.Description),
			URL:         entry.Link,
			Source:      s.name,
			Platform:    s.Type(),
			Keywords:    extractKeywords(entry),
			PublishedAt: publishedAt,
		})
	}

	s.log.Info().
		Int("count", len(items)).
		Msg("Fetched RSS items")

	return items, nil
}

// cleanText removes HTML tags and extra whitespace
func cleanText(text string) string {
	text = strings.NewReplacer("<br>", " ", "<br/>", " ", "<br />", " ", "</p>", " ", "<p>", "").Replace(text)

	var result strings.Builder
	inTag := false
	for _, r := range text {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			result.WriteRune(r)
		}
	}

	return strings.Join(strings.Fields(result.String()), " ")
}

// extractKeywords uses categories and the author name as keywords
func extractKeywords(item *gofeed.Item) []string {
	keywords := make([]string, 0, len(item.Categories)+1)
	keywords = append(keywords, item.Categories...)
	if item.Author != nil && item.Author.Name != "" {
		keywords = append(keywords, item.Author.Name)
	}
	return keywords
}

var _ research.Source = (*Source)(nil)
