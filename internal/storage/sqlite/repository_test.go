package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpl-agent/internal/storage"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(filepath.Join(t.TempDir(), "data", "steps.db"))
	require.NoError(t, err)
	require.NoError(t, repo.Migrate())
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestRepository_SaveAndLoadLatest(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveStep(ctx, "s1", "modulos_principais", "cpl_completo", map[string]any{"v": 1}))
	require.NoError(t, repo.SaveStep(ctx, "s1", "modulos_principais", "cpl_completo", map[string]any{"v": 2}))
	require.NoError(t, repo.SaveStep(ctx, "s2", "modulos_principais", "cpl_completo", map[string]any{"v": 3}))

	step, err := repo.LoadStep(ctx, "s1", "modulos_principais", "cpl_completo")
	require.NoError(t, err)
	assert.JSONEq(t, `{"v":2}`, string(step.Payload))

	steps, err := repo.ListSteps(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, steps, 2)
}

func TestRepository_LoadMissing(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.LoadStep(context.Background(), "s1", "c", "nothing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRepository_RequiresSession(t *testing.T) {
	repo := newTestRepo(t)

	assert.Error(t, repo.SaveStep(context.Background(), "", "c", "s", 1))
}
