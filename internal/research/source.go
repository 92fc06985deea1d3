package research

import (
	"context"
	"crypto/sha256"
	"fmt"
	"time"
)

// Item is one collected research entry
type Item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Platform    string    `json:"platform"`
	Keywords    []string  `json:"keywords,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// Source is a research source
type Source interface {
	// Name returns the unique name of this source
	Name() string

	// Type returns the source type (rss)
	Type() string

	// Fetch retrieves items from the source
	Fetch(ctx context.Context) ([]*Item, error)
}

// ItemID creates a stable ID for an item based on source type and URL
func ItemID(sourceType, url string) string {
	data := fmt.Sprintf("%s:%s", sourceType, url)
	hash := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", hash[:16])
}

// Manager manages multiple research sources
type Manager struct {
	sources []Source
}

// NewManager creates a new source manager
func NewManager() *Manager {
	return &Manager{
		sources: make([]Source, 0),
	}
}

// Register adds a source to the manager
func (m *Manager) Register(source Source) {
	m.sources = append(m.sources, source)
}

// Sources returns all registered sources
func (m *Manager) Sources() []Source {
	return m.sources
}

// FetchAll fetches items from all sources concurrently. Items are deduplicated by ID
func (m *Manager) FetchAll(ctx context.Context) ([]*Item, []error) {
	type result struct {
		items []*Item
		err   error
	}

	results := make(chan result, len(m.sources))

	for _, source := range m.sources {
		go func(s Source) {
			items, err := s.Fetch(ctx)
			results <- result{items: items, err: err}
		}(source)
	}

	var allItems []*Item
	var errs []error
	seen := make(map[string]bool)

	for range m.sources {
		r := <-results
		if r.err != nil {
			errs = append(errs, r.err)
			continue
		}
		for _, item := range r.items {
			if seen[item.ID] {
				continue
			}
			seen[item.ID] = true
			allItems = append(allItems, item)
		}
	}

	return allItems, errs
}
