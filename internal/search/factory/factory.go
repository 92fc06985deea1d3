package factory

import (
	"context"
	"fmt"

	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/search"
	"github.com/cpl-agent/internal/search/tavily"
	"github.com/cpl-agent/pkg/logger"
)

// NewSearcher builds the configured searcher with page enrichment and the optional cache
// A nil searcher with no error means search is disabled
func NewSearcher(ctx context.Context, cfg *config.Config, log *logger.Logger) (search.Searcher, error) {
	var base search.Searcher

	switch cfg.Search.Provider {
	case "", "none":
		return nil, nil
	case "tavily":
		if cfg.Search.TavilyAPIKey == "" {
			return nil, fmt.Errorf("tavily api key is missing")
		}
		base = tavily.NewClient(cfg.Search.TavilyAPIKey)
	default:
		return nil, fmt.Errorf("unknown search provider: %s", cfg.Search.Provider)
	}

	var s search.Searcher = search.NewEnricher(base, cfg.Search.EnrichBelow, cfg.Search.EnrichTimeout, cfg.Search.MaxContentChars, log)

	if cfg.Search.Cache.Enabled {
		kv, err := search.NewRedisKV(ctx, cfg.Search.Cache.RedisAddr, cfg.Search.Cache.Password, cfg.Search.Cache.DB)
		if err != nil {
			// Search still works without the cache
			log.Warn().Err(err).Msg("Search cache disabled")
			return s, nil
		}
		s = search.NewCachedSearcher(s, kv, cfg.Search.Cache.TTL, log)
	}

	return s, nil
}
