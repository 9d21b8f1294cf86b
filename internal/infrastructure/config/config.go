// Package config provides environment-driven configuration for the widget host.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all host configuration.
type Config struct {
	Storage   StorageConfig
	Cache     CacheConfig
	Telemetry TelemetryConfig
	Catalog   CatalogConfig
	Logging   LogConfig
}

// StorageConfig holds settings-store configuration.
type StorageConfig struct {
	DataDir string `envconfig:"PERCH_DATA_DIR" default:"./data"`
	Backend string `envconfig:"PERCH_SETTINGS_BACKEND" default:"file"` // "file" or "sqlite"
}

// CacheConfig holds cache-store configuration.
type CacheConfig struct {
	Backend       string `envconfig:"PERCH_CACHE_BACKEND" default:"file"` // "file" or "redis"
	RedisAddr     string `envconfig:"PERCH_CACHE_REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"PERCH_CACHE_REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"PERCH_CACHE_REDIS_DB" default:"0"`
}

// TelemetryConfig holds hardware telemetry watcher configuration.
type TelemetryConfig struct {
	Interval    time.Duration `envconfig:"PERCH_TELEMETRY_INTERVAL" default:"2s"`
	HistorySize int           `envconfig:"PERCH_TELEMETRY_HISTORY" default:"120"`
}

// CatalogConfig holds widget catalog seeding configuration.
type CatalogConfig struct {
	Dir string `envconfig:"PERCH_CATALOG_DIR" default:"./catalog"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"PERCH_LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"PERCH_LOG_DEV" default:"false"`
}

// Load loads configuration from environment variables. The prefix is
// empty and the variable names are spelled out in the tags: with nested
// sections a non-empty prefix would compound with the struct path and
// the flat PERCH_* names would stop resolving.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			DataDir: "./data",
			Backend: "file",
		},
		Cache: CacheConfig{
			Backend:   "file",
			RedisAddr: "localhost:6379",
		},
		Telemetry: TelemetryConfig{
			Interval:    2 * time.Second,
			HistorySize: 120,
		},
		Catalog: CatalogConfig{
			Dir: "./catalog",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
