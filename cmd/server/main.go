package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/livetv/livetv/app/admin"
	"github.com/livetv/livetv/app/config"
	"github.com/livetv/livetv/app/logging"
	"github.com/livetv/livetv/app/player"
	"github.com/livetv/livetv/app/server"
	"github.com/livetv/livetv/app/store"
	"github.com/livetv/livetv/app/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(".env")
	if err != nil {
		logging.New("info", "console", os.Stderr).Fatal().Err(err).Msg("load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

	// A store that cannot be opened is not fatal; pages show the
	// configuration error instead.
	catalog, closeStore, err := store.Open(ctx, cfg.Store, log)
	if err != nil {
		log.Error().Err(err).Str("driver", cfg.Store.Driver).Msg("catalog store unavailable")
	} else {
		defer closeStore()
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		log.Fatal().Err(err).Msg("parse templates")
	}
	if len(cfg.Admin.PasswordHash) == 0 {
		log.Warn().Msg("no admin password configured, admin login is disabled")
	}

	handler := server.NewHandler(server.Deps{
		Catalog:      catalog,
		Gate:         admin.NewGate(cfg.Admin.PasswordHash, cfg.Admin.SessionTTL),
		Renderer:     renderer,
		Policy:       player.Policy{AllowedHosts: cfg.EmbedAllowedHosts},
		Log:          log,
		SecureCookie: cfg.Admin.SecureCookie,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server stopped")
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown")
	}
	log.Info().Msg("shutdown complete")
}
