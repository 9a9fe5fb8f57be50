package database

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/livetv/livetv/app/config"
	"github.com/livetv/livetv/app/logging"
	"github.com/livetv/livetv/models"
	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Schema is the PostgreSQL schema applied by cmd/migrate.
//
//go:embed schema.sql
var Schema string

// Open connects gorm to the configured driver and optionally migrates the
// catalog tables.
func Open(ctx context.Context, cfg config.StoreConfig, log zerolog.Logger) (*gorm.DB, error) {
	dbLogger := logger.New(
		logging.GormWriter{Logger: log},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverPostgres:
		dialector = postgres.Open(cfg.DatabaseURL)
	case config.DriverSQLite:
		dsn, err := sqliteDSN(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         dbLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// foreign_keys is a per-connection pragma
		sqlDB.SetMaxOpenConns(1)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	if cfg.AutoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(&models.Category{}, &models.Channel{}); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("migrate db: %w", err)
		}
	}

	return db, nil
}

// sqliteDSN enables foreign keys and creates the parent directory of file
// databases.
func sqliteDSN(dsn string) (string, error) {
	if dsn == "" {
		dsn = "livetv.db"
	}
	if !strings.Contains(dsn, ":memory:") && !strings.Contains(dsn, "mode=memory") {
		clean := strings.TrimPrefix(dsn, "file:")
		clean = strings.Split(clean, "?")[0]
		if dir := filepath.Dir(clean); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("create db dir %q: %w", dir, err)
			}
		}
	}
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn, nil
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on", nil
	}
	return dsn + "?_foreign_keys=on", nil
}
