package viral

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSelectors_ExpandFor(t *testing.T) {
	set := DefaultSelectors()

	sels, ok := set.ExpandFor("instagram")
	assert.True(t, ok)
	assert.NotEmpty(t, sels)

	_, ok = set.ExpandFor("facebook page")
	assert.True(t, ok)

	_, ok = set.ExpandFor("youtube")
	assert.False(t, ok)

	assert.Contains(t, set.ModalQuery(), "div[role='dialog'] img, ")
}

func TestLoadSelectorSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	content := `
version: "2025-01"
expand:
  - platform: TikTok
    selectors:
      - "button.expand"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	set, err := LoadSelectorSet(path)
	require.NoError(t, err)

	assert.Equal(t, "2025-01", set.Version)
	sels, ok := set.ExpandFor("tiktok")
	assert.True(t, ok)
	assert.Equal(t, []string{"button.expand"}, sels)
	assert.Equal(t, DefaultSelectors().ModalImage, set.ModalImage)

	_, ok = set.ExpandFor("instagram")
	assert.False(t, ok)
}

func TestLoadSelectorSet_RequiresVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "selectors.yaml")
	require.NoError(t, os.WriteFile(path, []byte("expand: []\n"), 0644))

	_, err := LoadSelectorSet(path)
	assert.Error(t, err)
}

func TestClickFirst(t *testing.T) {
	fb := &fakeBrowser{clickable: map[string]bool{"b": true, "c": true}}

	sel, ok := ClickFirst(context.Background(), fb, []string{"a", "b", "c"}, 0)
	assert.True(t, ok)
	assert.Equal(t, "b", sel)
	assert.Equal(t, []string{"b"}, fb.clicked)

	_, ok = ClickFirst(context.Background(), fb, []string{"x"}, 0)
	assert.False(t, ok)
}
