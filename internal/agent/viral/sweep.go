package viral

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cpl-agent/internal/metrics"
	"github.com/cpl-agent/internal/research"
)

// PendingSessions lists the sessions under root that have a research file but neither a
// summary nor an error file
func PendingSessions(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var pending []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		sessionID := entry.Name()
		dir := filepath.Join(root, sessionID)
		if !exists(research.Path(root, sessionID)) {
			continue
		}
		if exists(filepath.Join(dir, SummaryFileName)) || exists(filepath.Join(dir, ErrorFileName)) {
			continue
		}
		pending = append(pending, sessionID)
	}
	return pending, nil
}

// Sweep analyzes every pending session and returns how many completed
// Failed sessions keep their error file and are not retried by later sweeps
func (a *Analyzer) Sweep(ctx context.Context, searchQuery string) (int, error) {
	sessions, err := PendingSessions(a.settings.SessionRoot)
	if err != nil {
		metrics.ObserveSweep(err)
		return 0, err
	}
	if len(sessions) == 0 {
		metrics.ObserveSweep(nil)
		return 0, nil
	}

	a.logger.Info().Int("sessions", len(sessions)).Msg("Sweeping pending sessions")

	analyzed := 0
	var errs []error
	for _, sessionID := range sessions {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if _, err := a.Analyze(ctx, searchQuery, sessionID, 0); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", sessionID, err))
			continue
		}
		analyzed++
	}

	err = errors.Join(errs...)
	metrics.ObserveSweep(err)
	return analyzed, err
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
