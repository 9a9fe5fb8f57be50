package store

import (
	"context"
	"fmt"

	"github.com/livetv/livetv/app/config"
	"github.com/livetv/livetv/app/database"
	"github.com/livetv/livetv/models"
	"github.com/rs/zerolog"
)

// Catalog is the full catalog store contract. Every failure is a
// *models.StoreError.
type Catalog interface {
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListChannels(ctx context.Context) ([]models.Channel, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, id string, category *models.Category) error
	DeleteCategory(ctx context.Context, id string) error
	CreateChannel(ctx context.Context, channel *models.Channel) error
	UpdateChannel(ctx context.Context, id string, channel *models.Channel) error
	DeleteChannel(ctx context.Context, id string) error
}

// ConfigError reports that the catalog store could not be constructed.
type ConfigError struct {
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return e.Reason + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Open builds the catalog store once for the lifetime of the process. On
// failure the returned Catalog is nil and the error is a *ConfigError.
func Open(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (Catalog, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case "":
		return nil, noop, &ConfigError{
			Reason: "DATABASE_URL is not set",
			Err:    models.ErrStoreUnavailable,
		}
	case config.DriverMemory:
		repo, err := models.NewMemoryRepository()
		if err != nil {
			return nil, noop, &ConfigError{Reason: "create memory store", Err: err}
		}
		return repo, noop, nil
	case config.DriverPostgres, config.DriverSQLite:
		db, err := database.Open(ctx, cfg, log)
		if err != nil {
			return nil, noop, &ConfigError{Reason: fmt.Sprintf("connect %s store", cfg.Driver), Err: err}
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, noop, &ConfigError{Reason: "connect store", Err: err}
		}
		return models.NewCatalogRepository(db), sqlDB.Close, nil
	default:
		return nil, noop, &ConfigError{
			Reason: fmt.Sprintf("unsupported store driver %q", cfg.Driver),
			Err:    models.ErrStoreUnavailable,
		}
	}
}
