// Package config loads taskflow's runtime configuration from the
// environment, optionally seeded from a .env file.
package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/taskflow/taskflow/pkg/serialization"
)

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// Configuration errors
var (
	ErrInvalidDriver   = errors.New("invalid storage driver")
	ErrMissingDSN      = errors.New("missing connection string")
	ErrInvalidInterval = errors.New("sweep interval must be positive")
	ErrInvalidCapacity = errors.New("history capacity must be positive")
	ErrInvalidLogLevel = errors.New("invalid log level")
	ErrInvalidFormat   = errors.New("log format must be text or json")
	ErrInvalidKey      = errors.New("encryption key must be hex encoded")
)

// Config holds every setting the binaries read.
type Config struct {
	Addr string `env:"TASKFLOW_ADDR" envDefault:":8080"`

	StorageDriver string `env:"TASKFLOW_STORAGE" envDefault:"memory"`
	ArchiveDriver string `env:"TASKFLOW_ARCHIVE" envDefault:"memory"`
	SQLitePath    string `env:"TASKFLOW_SQLITE_PATH" envDefault:"taskflow.db"`
	PostgresURL   string `env:"TASKFLOW_POSTGRES_URL"`

	RedisAddr     string `env:"TASKFLOW_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"TASKFLOW_REDIS_PASSWORD"`
	RedisDB       int    `env:"TASKFLOW_REDIS_DB" envDefault:"0"`
	RedisPrefix   string `env:"TASKFLOW_REDIS_PREFIX" envDefault:"taskflow:archive:"`

	SweepInterval    time.Duration `env:"TASKFLOW_SWEEP_INTERVAL" envDefault:"60s"`
	HistoryCapacity  int           `env:"TASKFLOW_HISTORY_CAPACITY" envDefault:"50"`
	ArchiveRetention time.Duration `env:"TASKFLOW_ARCHIVE_RETENTION" envDefault:"0s"`
	ArchiveMaxMB     int64         `env:"TASKFLOW_ARCHIVE_MAX_MB" envDefault:"64"`

	Codec       string `env:"TASKFLOW_CODEC" envDefault:"msgpack"`
	Compression string `env:"TASKFLOW_COMPRESSION" envDefault:"zstd"`
	// EncryptKey is a hex AES key (16, 24 or 32 bytes) sealing archived
	// records; empty disables sealing.
	EncryptKey string `env:"TASKFLOW_ENCRYPT_KEY"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`
}

// Load reads an optional .env file (or the given files) into the
// environment and parses it. Variables already set win over the files.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		// Try to load .env file (ignore error if it doesn't exist)
		_ = godotenv.Load()
	} else if err := godotenv.Load(files...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerations, required connection strings and ranges.
func (c *Config) Validate() error {
	if !slices.Contains([]string{DriverMemory, DriverSQLite, DriverPostgres}, c.StorageDriver) {
		return fmt.Errorf("%w: TASKFLOW_STORAGE=%q", ErrInvalidDriver, c.StorageDriver)
	}
	if !slices.Contains([]string{DriverMemory, DriverSQLite, DriverPostgres, DriverRedis}, c.ArchiveDriver) {
		return fmt.Errorf("%w: TASKFLOW_ARCHIVE=%q", ErrInvalidDriver, c.ArchiveDriver)
	}
	if (c.StorageDriver == DriverPostgres || c.ArchiveDriver == DriverPostgres) && c.PostgresURL == "" {
		return fmt.Errorf("%w: TASKFLOW_POSTGRES_URL is required", ErrMissingDSN)
	}
	if (c.StorageDriver == DriverSQLite || c.ArchiveDriver == DriverSQLite) && c.SQLitePath == "" {
		return fmt.Errorf("%w: TASKFLOW_SQLITE_PATH is required", ErrMissingDSN)
	}
	if c.SweepInterval <= 0 {
		return ErrInvalidInterval
	}
	if c.HistoryCapacity <= 0 {
		return ErrInvalidCapacity
	}
	if _, err := c.Serializer(); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if f := strings.ToLower(c.LogFormat); f != "text" && f != "json" {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, c.LogFormat)
	}
	return nil
}

// Serializer builds the archive serializer from Codec, Compression and
// EncryptKey.
func (c *Config) Serializer() (*serialization.Serializer, error) {
	var key []byte
	if c.EncryptKey != "" {
		k, err := hex.DecodeString(c.EncryptKey)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		key = k
	}
	return serialization.FromNames(c.Codec, c.Compression, key)
}

// Logger builds a slog logger writing to w (stderr when nil).
func (c *Config) Logger(w io.Writer) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.LogFormat, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, s)
	}
	return level, nil
}
