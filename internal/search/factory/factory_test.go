package factory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/search"
	"github.com/cpl-agent/pkg/logger"
)

func TestNewSearcher(t *testing.T) {
	ctx := context.Background()

	s, err := NewSearcher(ctx, &config.Config{Search: config.SearchConfig{Provider: "none"}}, logger.Nop())
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = NewSearcher(ctx, &config.Config{Search: config.SearchConfig{Provider: "tavily"}}, logger.Nop())
	assert.Error(t, err)

	_, err = NewSearcher(ctx, &config.Config{Search: config.SearchConfig{Provider: "bing"}}, logger.Nop())
	assert.Error(t, err)

	s, err = NewSearcher(ctx, &config.Config{Search: config.SearchConfig{Provider: "tavily", TavilyAPIKey: "k"}}, logger.Nop())
	require.NoError(t, err)
	assert.IsType(t, &search.Enricher{}, s)
}
