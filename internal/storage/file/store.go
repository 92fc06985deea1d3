package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/internal/storage"
)

// Store implements storage.StepStore as JSON files under <root>/<session_id>/<category>/<step>.json
type Store struct {
	root string
}

// New creates a file store rooted at root
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create session root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) path(sessionID, category, step string) string {
	return filepath.Join(s.root, sessionID, category, step+".json")
}

// SaveStep writes payload as indented JSON, replacing any previous record
func (s *Store) SaveStep(ctx context.Context, sessionID, category, step string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode step %s/%s: %w", category, step, err)
	}

	path := s.path(sessionID, category, step)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create step directory: %w", err)
	}

	// Write then rename so readers never see a partial document
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write step %s/%s: %w", category, step, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to commit step %s/%s: %w", category, step, err)
	}
	return nil
}

// LoadStep reads a previously saved step
func (s *Store) LoadStep(ctx context.Context, sessionID, category, step string) (*models.Step, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := s.path(sessionID, category, step)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read step %s/%s: %w", category, step, err)
	}

	var modTime time.Time
	if info, err := os.Stat(path); err == nil {
		modTime = info.ModTime()
	}

	return &models.Step{
		SessionID: sessionID,
		Category:  category,
		Name:      step,
		Payload:   data,
		CreatedAt: modTime,
	}, nil
}

// Close is a no-op for the file store
func (s *Store) Close() error {
	return nil
}
