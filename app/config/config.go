package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMemory   = "memory"
)

// Config keeps runtime settings for the server.
type Config struct {
	HTTPAddr string
	Store    StoreConfig
	Admin    AdminConfig
	// EmbedAllowedHosts restricts which hosts may be embedded in the player.
	// Empty means any http(s) host.
	EmbedAllowedHosts []string
	LogLevel          string
	LogFormat         string
}

// StoreConfig describes the catalog store connection. An empty Driver means
// the store is not configured.
type StoreConfig struct {
	Driver      string
	DatabaseURL string
	AutoMigrate bool
}

type AdminConfig struct {
	PasswordHash []byte
	SessionTTL   time.Duration
	SecureCookie bool
}

// Load reads an optional .env file and then the environment. Missing store
// settings are not an error here; they surface as an unavailable store.
func Load(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}

	cfg := Config{
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "console"),
		Store: StoreConfig{
			Driver:      strings.ToLower(env("STORE_DRIVER")),
			DatabaseURL: env("DATABASE_URL"),
		},
		Admin: AdminConfig{
			SessionTTL: 12 * time.Hour,
		},
		EmbedAllowedHosts: splitList(env("EMBED_ALLOWED_HOSTS")),
	}

	if cfg.Store.Driver == "" {
		cfg.Store.Driver = inferDriver(cfg.Store.DatabaseURL)
	}
	switch cfg.Store.Driver {
	case "", DriverPostgres, DriverSQLite, DriverMemory:
	default:
		return cfg, fmt.Errorf("STORE_DRIVER %q is not supported", cfg.Store.Driver)
	}

	autoMigrate, err := parseBool("DB_AUTO_MIGRATE", cfg.Store.Driver != DriverPostgres)
	if err != nil {
		return cfg, err
	}
	cfg.Store.AutoMigrate = autoMigrate

	if raw := env("ADMIN_SESSION_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil || ttl <= 0 {
			return cfg, fmt.Errorf("ADMIN_SESSION_TTL %q is not a positive duration", raw)
		}
		cfg.Admin.SessionTTL = ttl
	}

	secure, err := parseBool("ADMIN_COOKIE_SECURE", false)
	if err != nil {
		return cfg, err
	}
	cfg.Admin.SecureCookie = secure

	hash, err := adminPasswordHash()
	if err != nil {
		return cfg, err
	}
	cfg.Admin.PasswordHash = hash

	return cfg, nil
}

func adminPasswordHash() ([]byte, error) {
	if raw := env("ADMIN_PASSWORD_HASH"); raw != "" {
		hash := []byte(raw)
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("ADMIN_PASSWORD_HASH is not a bcrypt hash: %w", err)
		}
		return hash, nil
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash ADMIN_PASSWORD: %w", err)
		}
		return hash, nil
	}
	return nil, nil
}

func inferDriver(databaseURL string) string {
	if databaseURL == "" {
		return ""
	}
	if u, err := url.Parse(databaseURL); err == nil {
		switch u.Scheme {
		case "postgres", "postgresql":
			return DriverPostgres
		}
	}
	return DriverSQLite
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envOr(key, fallback string) string {
	if v := env(key); v != "" {
		return v
	}
	return fallback
}

func parseBool(key string, fallback bool) (bool, error) {
	raw := env(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback, fmt.Errorf("%s %q is not a boolean", key, raw)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.ToLower(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
