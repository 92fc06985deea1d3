package viral

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cpl-agent/pkg/logger"
)

func TestPendingSessions(t *testing.T) {
	root := t.TempDir()

	writeResearch(t, root, "pending", nil, nil)
	writeResearch(t, root, "done", nil, nil)
	require.NoError(t, os.WriteFile(filepath.Join(root, "done", SummaryFileName), []byte("{}"), 0644))
	writeResearch(t, root, "failed", nil, nil)
	require.NoError(t, os.WriteFile(filepath.Join(root, "failed", ErrorFileName), []byte("{}"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.json"), []byte("{}"), 0644))

	pending, err := PendingSessions(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"pending"}, pending)

	missing, err := PendingSessions(filepath.Join(root, "nope"))
	assert.NoError(t, err)
	assert.Empty(t, missing)
}

func TestSweep(t *testing.T) {
	settings := testSettings(t)
	writeResearch(t, settings.SessionRoot, "a", nil, nil)
	writeResearch(t, settings.SessionRoot, "b", []any{post("https://x", 1.0, "web")}, nil)

	fb := &fakeBrowser{defaultSize: 4096}
	a := NewAnalyzer(settings, &fakeLauncher{browser: fb}, nil, logger.Nop())

	analyzed, err := a.Sweep(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 2, analyzed)

	pending, err := PendingSessions(settings.SessionRoot)
	require.NoError(t, err)
	assert.Empty(t, pending)

	analyzed, err = a.Sweep(context.Background(), "q")
	require.NoError(t, err)
	assert.Equal(t, 0, analyzed)
}
