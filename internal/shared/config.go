package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Catalog  CatalogConfig  `toml:"catalog"`
	Share    ShareConfig    `toml:"share"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// CatalogConfig contains Open Library endpoint settings.
type CatalogConfig struct {
	BaseURL        string  `toml:"base_url"`
	CoverBaseURL   string  `toml:"cover_base_url"`
	CoverSize      string  `toml:"cover_size"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	RateLimit      float64 `toml:"rate_limit"` // requests per second, 0 disables limiting
	UserAgent      string  `toml:"user_agent"`
}

// Timeout returns the per-request timeout as a [time.Duration].
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ShareConfig controls where shared cover artifacts are written.
type ShareConfig struct {
	Dir string `toml:"dir"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path          string `toml:"path"`
	MaxOpenConns  int    `toml:"max_open_conns"`
	MaxIdleConns  int    `toml:"max_idle_conns"`
	RecordHistory bool   `toml:"record_history"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LogConfig contains logger settings.
//
// File is only used by full-screen surfaces.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadConfigOrDefault loads path when it exists and falls back to [DefaultConfig] otherwise.
func LoadConfigOrDefault(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return DefaultConfig(), nil
	}
	return LoadConfig(path)
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate checks values that would otherwise fail far from where they were set.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Catalog.BaseURL) == "" {
		return fmt.Errorf("%w: catalog.base_url is empty", ErrInvalidConfig)
	}
	if c.Catalog.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: catalog.timeout_seconds must be positive", ErrInvalidConfig)
	}
	if c.Catalog.RateLimit < 0 {
		return fmt.Errorf("%w: catalog.rate_limit must not be negative", ErrInvalidConfig)
	}
	switch strings.ToUpper(c.Catalog.CoverSize) {
	case "S", "M", "L":
	default:
		return fmt.Errorf("%w: catalog.cover_size must be S, M or L", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port out of range", ErrInvalidConfig)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
