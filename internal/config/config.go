// Package config provides configuration management.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/warp/premium-engine/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Server contains HTTP server configuration
	Server ServerConfig `yaml:"server"`

	// Database contains storage configuration
	Database DatabaseConfig `yaml:"database"`

	// Catalog contains rate catalog configuration
	Catalog CatalogConfig `yaml:"catalog"`

	// Expiration contains the automatic expiration job configuration
	Expiration ExpirationConfig `yaml:"expiration"`

	// Logging contains logging configuration
	Logging logging.Config `yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Port is the HTTP listen port
	Port int `yaml:"port"`

	// AllowedOrigins is the CORS origin allow-list
	AllowedOrigins []string `yaml:"allowed_origins"`

	// ShutdownTimeout bounds graceful shutdown
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DatabaseConfig contains storage settings
type DatabaseConfig struct {
	// Path is the SQLite database path; ":memory:" for an in-memory database
	Path string `yaml:"path"`
}

// CatalogConfig contains rate catalog settings
type CatalogConfig struct {
	// SeedFile is an optional YAML catalog loaded at startup
	SeedFile string `yaml:"seed_file"`
}

// ExpirationConfig contains automatic expiration settings
type ExpirationConfig struct {
	// Enabled starts the background expiration job
	Enabled bool `yaml:"enabled"`

	// Interval is how often the job runs
	Interval time.Duration `yaml:"interval"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			AllowedOrigins:  []string{"http://localhost:*", "http://127.0.0.1:*"},
			ShutdownTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "premium.db",
		},
		Expiration: ExpirationConfig{
			Enabled:  true,
			Interval: time.Hour,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load reads a YAML configuration file over the defaults.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("load config %q: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %q: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %q: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Database.Path == "" {
		return errors.New("database.path is required")
	}
	if c.Expiration.Enabled && c.Expiration.Interval <= 0 {
		return errors.New("expiration.interval must be positive when expiration is enabled")
	}
	return nil
}
