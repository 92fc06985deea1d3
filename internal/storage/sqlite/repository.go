package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cpl-agent/internal/models"
	"github.com/cpl-agent/internal/storage"
)

// Repository implements storage.StepStore using SQLite
type Repository struct {
	db *gorm.DB
}

// New creates a new SQLite repository
func New(dsn string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dsn)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &Repository{db: db}, nil
}

// Migrate runs database migrations
func (r *Repository) Migrate() error {
	return r.db.AutoMigrate(&models.Step{})
}

// Close closes the database connection
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// SaveStep appends a step record; the latest record of a step wins on load
func (r *Repository) SaveStep(ctx context.Context, sessionID, category, step string, payload any) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	record, err := models.NewStep(sessionID, category, step, payload)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("failed to save step %s/%s: %w", category, step, err)
	}
	return nil
}

// LoadStep returns the most recent record of a step
func (r *Repository) LoadStep(ctx context.Context, sessionID, category, step string) (*models.Step, error) {
	var record models.Step
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND category = ? AND name = ?", sessionID, category, step).
		Order("id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// ListSteps returns every record of a session, oldest first
func (r *Repository) ListSteps(ctx context.Context, sessionID string) ([]*models.Step, error) {
	var steps []*models.Step
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("id ASC").
		Find(&steps).Error; err != nil {
		return nil, err
	}
	return steps, nil
}
