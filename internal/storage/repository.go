package storage

import (
	"context"

	"github.com/cpl-agent/internal/models"
)

// StepStore persists intermediate session results
type StepStore interface {
	// SaveStep records payload as step under category for the session
	SaveStep(ctx context.Context, sessionID, category, step string, payload any) error

	// LoadStep returns the latest record of step, or ErrNotFound
	LoadStep(ctx context.Context, sessionID, category, step string) (*models.Step, error)

	Close() error
}
