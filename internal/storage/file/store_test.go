package file

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpl-agent/internal/storage"
)

func TestStore_SaveAndLoad(t *testing.T) {
	root := t.TempDir()
	s, err := New(root)
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SaveStep(ctx, "sess-1", "modulos_principais", "cpl_completo", map[string]any{"title": "A"}))

	_, err = os.Stat(filepath.Join(root, "sess-1", "modulos_principais", "cpl_completo.json"))
	require.NoError(t, err)

	step, err := s.LoadStep(ctx, "sess-1", "modulos_principais", "cpl_completo")
	require.NoError(t, err)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(step.Payload, &payload))
	assert.Equal(t, "A", payload["title"])
	assert.Equal(t, "cpl_completo", step.Name)
}

func TestStore_OverwritesStep(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.SaveStep(ctx, "s", "c", "step", map[string]int{"v": 1}))
	require.NoError(t, s.SaveStep(ctx, "s", "c", "step", map[string]int{"v": 2}))

	step, err := s.LoadStep(ctx, "s", "c", "step")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(step.Payload))
}

func TestStore_LoadMissing(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	_, err = s.LoadStep(context.Background(), "s", "c", "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStore_RequiresSession(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, s.SaveStep(context.Background(), "", "c", "step", 1))
}

func TestStore_UnencodablePayload(t *testing.T) {
	s, err := New(t.TempDir())
	require.NoError(t, err)

	assert.Error(t, s.SaveStep(context.Background(), "s", "c", "step", make(chan int)))
}
