package research

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpl-agent/pkg/logger"
)

type stubSource struct {
	name  string
	items []*Item
	err   error
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Type() string { return "stub" }
func (s *stubSource) Fetch(ctx context.Context) ([]*Item, error) {
	return s.items, s.err
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(t.TempDir(), "nope")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLoad_Invalid(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "s1"), 0755))
	require.NoError(t, os.WriteFile(Path(root, "s1"), []byte("{broken"), 0644))

	_, err := Load(root, "s1")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}

func TestRecords(t *testing.T) {
	doc := map[string]any{
		"social_results": []any{
			map[string]any{"url": "a"},
			"not a record",
			map[string]any{"url": "b"},
		},
		"youtube_results": "wrong type",
	}

	assert.Len(t, Records(doc, "social_results"), 2)
	assert.Empty(t, Records(doc, "youtube_results"))
	assert.Empty(t, Records(doc, "missing"))
}

func TestCollect_MergesIntoResearchFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, Save(root, "s1", map[string]any{
		"social_results": []any{map[string]any{"url": "https://x"}},
	}))

	now := time.Now()
	m := NewManager()
	m.Register(&stubSource{name: "a", items: []*Item{
		{ID: "1", URL: "https://a/1", PublishedAt: now.Add(-2 * time.Hour)},
		{ID: "2", URL: "https://a/2", PublishedAt: now},
	}})
	m.Register(&stubSource{name: "b", items: []*Item{{ID: "1", URL: "https://a/1"}}})
	m.Register(&stubSource{name: "c", err: errors.New("down")})

	n, err := Collect(context.Background(), m, root, "s1", logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	doc, err := Load(root, "s1")
	require.NoError(t, err)
	assert.Len(t, Records(doc, "social_results"), 1)

	rss := Records(doc, "rss_results")
	require.Len(t, rss, 2)
	assert.Equal(t, "https://a/2", rss[0]["url"])
	assert.Contains(t, doc, KeyCollectedAt)
}

func TestCollect_AllSourcesFail(t *testing.T) {
	m := NewManager()
	m.Register(&stubSource{name: "c", err: errors.New("down")})

	_, err := Collect(context.Background(), m, t.TempDir(), "s1", logger.Nop())
	assert.Error(t, err)
}
