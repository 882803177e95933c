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

		if config.Database.Path != "./ytplay.db" {
			t.Errorf("expected database path ./ytplay.db, got %s", config.Database.Path)
		}

		if config.Origin.BaseURL != "http://127.0.0.1:8080" {
			t.Errorf("expected origin URL http://127.0.0.1:8080, got %s", config.Origin.BaseURL)
		}

		if config.Origin.MaxRetries != 3 {
			t.Errorf("expected 3 origin retries, got %d", config.Origin.MaxRetries)
		}

		if config.Player.Volume != 80 {
			t.Errorf("expected volume 80, got %d", config.Player.Volume)
		}

		if got := config.Cache.TTL(); got != 24*time.Hour {
			t.Errorf("expected 24h ttl, got %v", got)
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

		testConfig := `[database]
path = "/custom/path.db"

[origin]
base_url = "http://localhost:9090"
token = "secret"

[cache]
ttl_hours = 2
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Origin.Token != "secret" {
			t.Errorf("expected token secret, got %s", config.Origin.Token)
		}

		if config.Cache.TTL() != 2*time.Hour {
			t.Errorf("expected 2h ttl, got %v", config.Cache.TTL())
		}

		if config.Player.Volume != 80 {
			t.Errorf("expected unset keys to keep defaults, got volume %d", config.Player.Volume)
		}
	})

	t.Run("LoadConfig rejects malformed TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[origin\nbase_url ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		_, err := LoadConfig(configPath)
		if !errors.Is(err, ErrInvalidConfig) {
			t.Errorf("expected ErrInvalidConfig, got %v", err)
		}
	})

	t.Run("LoadConfigOrDefault", func(t *testing.T) {
		config, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.toml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if config.Database.Path != "./ytplay.db" {
			t.Errorf("expected default config, got database path %s", config.Database.Path)
		}
	})
}

func TestHashKeyConfig(t *testing.T) {
	t.Run("is deterministic", func(t *testing.T) {
		if HashKey("album", "MPRE1") != HashKey("album", "MPRE1") {
			t.Error("expected identical hashes for identical input")
		}
	})

	t.Run("joins parts with colon", func(t *testing.T) {
		if HashKey("album", "MPRE1") != HashKey("album:MPRE1") {
			t.Error("expected joined parts to hash like the joined string")
		}
	})

	t.Run("differs by content type", func(t *testing.T) {
		if HashKey("album", "X") == HashKey("playlist", "X") {
			t.Error("expected different hashes for different types")
		}
	})

	t.Run("is hex sha256", func(t *testing.T) {
		if got := len(HashKey("a")); got != 64 {
			t.Errorf("expected 64 hex chars, got %d", got)
		}
	})
}

func TestParseLogLevelConfig(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty defaults to info", input: "", want: "info"},
		{name: "debug", input: "debug", want: "debug"},
		{name: "mixed case", input: "WARN", want: "warn"},
		{name: "unknown defaults to info", input: "loud", want: "info"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.input).String(); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
