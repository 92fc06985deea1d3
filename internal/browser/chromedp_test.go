package browser

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cpl-agent/pkg/logger"
)

func TestNewChromeLauncher_Defaults(t *testing.T) {
	l := NewChromeLauncher(Options{}, logger.Nop())

	assert.Equal(t, 1920, l.opts.WindowWidth)
	assert.Equal(t, 1080, l.opts.WindowHeight)
	assert.Equal(t, 30*time.Second, l.opts.NavigateTimeout)
}

func TestLaunch_MissingExecutableIsUnavailable(t *testing.T) {
	l := NewChromeLauncher(Options{ExecPath: filepath.Join(t.TempDir(), "no-chrome")}, logger.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := l.Launch(ctx)
	assert.True(t, errors.Is(err, ErrUnavailable))
}
