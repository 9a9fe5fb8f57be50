// Command migrate applies the catalog schema to a PostgreSQL database.
package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"github.com/livetv/livetv/app/config"
	"github.com/livetv/livetv/app/database"
	"github.com/livetv/livetv/app/logging"
	_ "github.com/lib/pq"
)

func main() {
	cfg, err := config.Load(".env")
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if cfg.Store.Driver != config.DriverPostgres {
		log.Fatal().Str("driver", cfg.Store.Driver).Msg("migrate needs a postgres DATABASE_URL")
	}

	db, err := sql.Open("postgres", cfg.Store.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("ping database")
	}
	if _, err := db.ExecContext(ctx, database.Schema); err != nil {
		log.Fatal().Err(err).Msg("apply schema")
	}
	log.Info().Msg("schema applied")
}
