package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/pkg/logger"
)

// KeyCollectedAt records when RSS results were last merged
const KeyCollectedAt = "rss_collected_at"

// Collect fetches every source and merges the items into the session research file
// under rss_results, keeping all other keys. It returns the number of items written
func Collect(ctx context.Context, m *Manager, root, sessionID string, log *logger.Logger) (int, error) {
	log = log.WithComponent("research").WithSession(sessionID)

	doc, err := Load(root, sessionID)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return 0, err
		}
		doc = map[string]any{}
	}

	items, errs := m.FetchAll(ctx)
	for _, e := range errs {
		log.Warn().Err(e).Msg("Research source failed")
	}
	if len(items) == 0 && len(errs) > 0 {
		return 0, fmt.Errorf("all %d research sources failed", len(errs))
	}

	// Newest first
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.After(items[j].PublishedAt)
	})

	encoded, err := json.Marshal(items)
	if err != nil {
		return 0, fmt.Errorf("failed to encode research items: %w", err)
	}
	var records []any
	if err := json.Unmarshal(encoded, &records); err != nil {
		return 0, fmt.Errorf("failed to encode research items: %w", err)
	}
	if records == nil {
		records = []any{}
	}

	doc[models.ResearchRSSResults] = records
	doc[KeyCollectedAt] = time.Now().Format(time.RFC3339)

	if err := Save(root, sessionID, doc); err != nil {
		return 0, err
	}

	log.Info().Int("items", len(items)).Msg("Research collected")
	return len(items), nil
}
