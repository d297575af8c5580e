package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Storage backends.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds service configuration.
type Config struct {
	DatabaseURL     string
	ServerAddr      string
	Storage         string
	StatsServerURL  string
	StatsTimeout    time.Duration
	AuditSigningKey []byte
	LogLevel        zerolog.Level
	ShutdownTimeout time.Duration
	MigrateOnStart  bool
}

// Load reads configuration from the environment. Variables found in the
// optional env file (".env" by default, ENV_FILE to override) are applied
// first without overriding ones already set.
func Load() (*Config, error) {
	envFile := getenv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		user := getenv("POSTGRES_USER", "ewm")
		pass := getenv("POSTGRES_PASSWORD", "ewm_pass")
		db := getenv("POSTGRES_DB", "ewm")
		host := getenv("POSTGRES_HOST", "localhost")
		port := getenv("POSTGRES_PORT", "5432")
		sslmode := getenv("DATABASE_SSLMODE", "disable")
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", user, pass, host, port, db, sslmode)
	}

	storage := strings.ToLower(getenv("STORAGE", StoragePostgres))
	if storage != StoragePostgres && storage != StorageMemory {
		return nil, fmt.Errorf("unsupported STORAGE %q", storage)
	}

	key, err := parseHexKey(os.Getenv("AUDIT_SIGNING_KEY"))
	if err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(strings.ToLower(getenv("LOG_LEVEL", "info")))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	return &Config{
		DatabaseURL:     dsn,
		ServerAddr:      getenv("SERVER_ADDR", "0.0.0.0:8080"),
		Storage:         storage,
		StatsServerURL:  getenv("STATS_SERVER_URL", "http://localhost:9090"),
		StatsTimeout:    parseDuration(getenv("STATS_TIMEOUT", "2s"), 2*time.Second),
		AuditSigningKey: key,
		LogLevel:        level,
		ShutdownTimeout: parseDuration(getenv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		MigrateOnStart:  parseBool(getenv("MIGRATE_ON_START", "true"), true),
	}, nil
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val == "" {
		return def
	}
	return val
}

func parseDuration(val string, def time.Duration) time.Duration {
	if val == "" {
		return def
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return def
	}
	return d
}

func parseBool(val string, def bool) bool {
	if val == "" {
		return def
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return b
}

func parseHexKey(val string) ([]byte, error) {
	if val == "" {
		return nil, nil
	}
	b, err := hex.DecodeString(val)
	if err != nil {
		return nil, fmt.Errorf("AUDIT_SIGNING_KEY must be hex encoded: %w", err)
	}
	return b, nil
}
