package factory

import (
	"fmt"

	"github.com/cpl-agent/internal/config"
	"github.com/cpl-agent/internal/storage"
	"github.com/cpl-agent/internal/storage/file"
	"github.com/cpl-agent/internal/storage/sqlite"
)

// NewStepStore opens the configured step store. The file store shares the sessions root
func NewStepStore(cfg *config.Config) (storage.StepStore, error) {
	switch cfg.Storage.Driver {
	case "", "file":
		store, err := file.New(cfg.Sessions.Root)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite":
		repo, err := sqlite.New(cfg.Storage.DSN)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(); err != nil {
			repo.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
}
