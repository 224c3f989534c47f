package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Catalog.BaseURL != "https://openlibrary.org" {
			t.Errorf("expected catalog base URL https://openlibrary.org, got %s", config.Catalog.BaseURL)
		}

		if config.Catalog.Timeout() != 10*time.Second {
			t.Errorf("expected 10s timeout, got %v", config.Catalog.Timeout())
		}

		if config.Catalog.CoverSize != "M" {
			t.Errorf("expected cover size M, got %s", config.Catalog.CoverSize)
		}

		if config.Database.Path != "./booksearch.db" {
			t.Errorf("expected database path ./booksearch.db, got %s", config.Database.Path)
		}

		if config.Server.Addr() != "127.0.0.1:3000" {
			t.Errorf("expected server addr 127.0.0.1:3000, got %s", config.Server.Addr())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[catalog]
base_url = "http://localhost:9090"
timeout_seconds = 3
cover_size = "L"

[database]
path = "/custom/path.db"
record_history = false

[server]
host = "0.0.0.0"
port = 8080
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Catalog.BaseURL != "http://localhost:9090" {
			t.Errorf("expected catalog base URL http://localhost:9090, got %s", config.Catalog.BaseURL)
		}

		if config.Catalog.Timeout() != 3*time.Second {
			t.Errorf("expected 3s timeout, got %v", config.Catalog.Timeout())
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Database.RecordHistory {
			t.Error("expected record_history to be disabled")
		}

		if config.Server.Port != 8080 {
			t.Errorf("expected server port 8080, got %d", config.Server.Port)
		}

		if config.Catalog.CoverBaseURL != "https://covers.openlibrary.org" {
			t.Errorf("expected unset keys to keep defaults, got cover base %q", config.Catalog.CoverBaseURL)
		}
	})

	t.Run("LoadConfig Rejects Invalid Values", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := os.WriteFile(configPath, []byte("[catalog]\ncover_size = \"XL\"\n"), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfig Malformed", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := os.WriteFile(configPath, []byte("[catalog\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		if !errors.Is(err, ErrMissingConfig) {
			t.Errorf("expected ErrMissingConfig, got %v", err)
		}
	})

	t.Run("LoadConfigOrDefault Missing File", func(t *testing.T) {
		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Catalog.BaseURL != DefaultConfig().Catalog.BaseURL {
			t.Error("expected default config")
		}
	})
}
