// Package config loads tripquest server configuration from JSON files with
// environment variable overrides.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tripquest/adapters/redis"
	"tripquest/adapters/sqlx"
)

// Environment represents the deployment environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvTesting     Environment = "testing"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds the complete application configuration.
type Config struct {
	Environment Environment `json:"environment" env:"TRIPQUEST_ENV"`

	Server   ServerConfig   `json:"server"`
	Storage  StorageConfig  `json:"storage"`
	Engine   EngineConfig   `json:"engine"`
	Logging  LoggingConfig  `json:"logging"`
	Metrics  MetricsConfig  `json:"metrics"`
	Security SecurityConfig `json:"security"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Address           string        `json:"address" env:"TRIPQUEST_SERVER_ADDR"`
	PathPrefix        string        `json:"path_prefix" env:"TRIPQUEST_SERVER_PATH_PREFIX"`
	CORSOrigin        string        `json:"cors_origin" env:"TRIPQUEST_SERVER_CORS_ORIGIN"`
	ReadTimeout       time.Duration `json:"read_timeout" env:"TRIPQUEST_SERVER_READ_TIMEOUT"`
	WriteTimeout      time.Duration `json:"write_timeout" env:"TRIPQUEST_SERVER_WRITE_TIMEOUT"`
	IdleTimeout       time.Duration `json:"idle_timeout" env:"TRIPQUEST_SERVER_IDLE_TIMEOUT"`
	ReadHeaderTimeout time.Duration `json:"read_header_timeout" env:"TRIPQUEST_SERVER_READ_HEADER_TIMEOUT"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout" env:"TRIPQUEST_SERVER_SHUTDOWN_TIMEOUT"`
}

// StorageConfig selects and configures the persistence adapter.
type StorageConfig struct {
	Adapter string       `json:"adapter" env:"TRIPQUEST_STORAGE_ADAPTER"`
	Redis   redis.Config `json:"redis,omitempty"`
	SQL     sqlx.Config  `json:"sql,omitempty"`
	File    FileConfig   `json:"file,omitempty"`
}

// FileConfig holds JSON file storage configuration.
type FileConfig struct {
	Path string `json:"path" env:"TRIPQUEST_STORAGE_FILE_PATH"`
}

// EngineConfig tunes progression mechanics.
type EngineConfig struct {
	TotalDestinations int           `json:"total_destinations" env:"TRIPQUEST_ENGINE_TOTAL_DESTINATIONS"`
	VisitAward        int           `json:"visit_award" env:"TRIPQUEST_ENGINE_VISIT_AWARD"`
	BadgeAward        int           `json:"badge_award" env:"TRIPQUEST_ENGINE_BADGE_AWARD"`
	TickInterval      time.Duration `json:"tick_interval" env:"TRIPQUEST_ENGINE_TICK_INTERVAL"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `json:"level" env:"TRIPQUEST_LOG_LEVEL"`
	Format string `json:"format" env:"TRIPQUEST_LOG_FORMAT"`
	Output string `json:"output" env:"TRIPQUEST_LOG_OUTPUT"`
}

// MetricsConfig holds the Prometheus exposition settings.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" env:"TRIPQUEST_METRICS_ENABLED"`
	Path    string `json:"path" env:"TRIPQUEST_METRICS_PATH"`
}

// SecurityConfig holds API protection settings.
type SecurityConfig struct {
	EnableRateLimit bool            `json:"enable_rate_limit" env:"TRIPQUEST_SECURITY_RATE_LIMIT_ENABLED"`
	RateLimit       RateLimitConfig `json:"rate_limit,omitempty"`
	APIKeys         []string        `json:"api_keys,omitempty" env:"TRIPQUEST_SECURITY_API_KEYS"`
}

// RateLimitConfig holds token bucket settings.
type RateLimitConfig struct {
	RequestsPerMinute int           `json:"requests_per_minute" env:"TRIPQUEST_SECURITY_RATE_LIMIT_RPM"`
	BurstSize         int           `json:"burst_size" env:"TRIPQUEST_SECURITY_RATE_LIMIT_BURST"`
	CleanupInterval   time.Duration `json:"cleanup_interval" env:"TRIPQUEST_SECURITY_RATE_LIMIT_CLEANUP"`
}

// DefaultConfig returns a configuration with development defaults.
func DefaultConfig() *Config {
	return &Config{
		Environment: EnvDevelopment,
		Server: ServerConfig{
			Address:           ":8080",
			PathPrefix:        "/api",
			CORSOrigin:        "*",
			ReadTimeout:       10 * time.Second,
			WriteTimeout:      10 * time.Second,
			IdleTimeout:       60 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Storage: StorageConfig{
			Adapter: "file",
			Redis:   redis.DefaultConfig(),
			SQL:     sqlx.DefaultConfig(),
			File: FileConfig{
				Path: "./data/tripquest.json",
			},
		},
		Engine: EngineConfig{
			TotalDestinations: 15,
			VisitAward:        10,
			BadgeAward:        100,
			TickInterval:      time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Security: SecurityConfig{
			EnableRateLimit: false,
			RateLimit: RateLimitConfig{
				RequestsPerMinute: 60,
				BurstSize:         10,
				CleanupInterval:   5 * time.Minute,
			},
		},
	}
}

// Load builds configuration from defaults plus environment overrides.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromFile reads a JSON config file, then applies environment overrides.
func LoadFromFile(path string) (*Config, error) {
	if err := checkConfigPath(path); err != nil {
		return nil, fmt.Errorf("invalid config file path: %w", err)
	}
	data, err := os.ReadFile(path) // #nosec G304 - path validated above
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func checkConfigPath(path string) error {
	if path == "" {
		return errors.New("config file path cannot be empty")
	}
	cleanPath := filepath.Clean(path)
	if !strings.HasSuffix(strings.ToLower(cleanPath), ".json") {
		return errors.New("config file must have .json extension")
	}
	if _, err := os.Stat(cleanPath); err != nil {
		return fmt.Errorf("config file not accessible: %w", err)
	}
	return nil
}

// String returns an indented JSON rendering with secrets redacted.
func (c *Config) String() string {
	cfg := *c
	if cfg.Storage.SQL.DSN != "" {
		cfg.Storage.SQL.DSN = "[REDACTED]"
	}
	if cfg.Storage.Redis.Password != "" {
		cfg.Storage.Redis.Password = "[REDACTED]"
	}
	data, _ := json.MarshalIndent(cfg, "", "  ")
	return string(data)
}
