package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "analyses_data", cfg.Sessions.Root)
	assert.Equal(t, "analyses_data/files", cfg.Sessions.FilesRoot)
	assert.Equal(t, 15, cfg.Capture.MaxCaptures)
	assert.Equal(t, 20, cfg.Capture.MaxCandidates)
	assert.Equal(t, int64(1024), cfg.Capture.MinBytes)
	assert.Equal(t, 15*time.Second, cfg.Capture.BodyTimeout)
	assert.Equal(t, 3*time.Second, cfg.Capture.PageSettle)
	assert.Equal(t, 2, cfg.Generator.MaxSearchIterations)
	assert.Equal(t, "file", cfg.Storage.Driver)
}

func TestLoad_OverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
capture:
  max_captures: 3
  page_settle: 0s
research:
  feeds:
    - name: marketing
      url: https://example.com/feed.xml
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Capture.MaxCaptures)
	assert.Equal(t, time.Duration(0), cfg.Capture.PageSettle)
	require.Len(t, cfg.Research.Feeds, 1)
	assert.Equal(t, "marketing", cfg.Research.Feeds[0].Name)
}

func TestLoad_InvalidFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("capture: [unterminated"), 0600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Anthropic: AnthropicConfig{APIKey: "key"},
		Search:    SearchConfig{Provider: "none"},
		Storage:   StorageConfig{Driver: "file"},
	}
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Driver = "postgres"
	assert.Error(t, cfg.Validate())

	cfg.Storage.Driver = "sqlite"
	cfg.Search.Provider = "tavily"
	assert.Error(t, cfg.Validate())

	cfg.Search.TavilyAPIKey = "tvly"
	cfg.Anthropic.APIKey = ""
	assert.Error(t, cfg.Validate())
}
