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

		if config.Database.Path != "./kjx.db" {
			t.Errorf("expected database path ./kjx.db, got %s", config.Database.Path)
		}

		if config.Rotation.InsertionPolicy != "bottom" {
			t.Errorf("expected bottom insertion policy, got %s", config.Rotation.InsertionPolicy)
		}

		if config.Rotation.Pad() != 60*time.Second {
			t.Errorf("expected 60s pad, got %v", config.Rotation.Pad())
		}

		if config.Rotation.DefaultSongLength() != 4*time.Minute {
			t.Errorf("expected 4m default song length, got %v", config.Rotation.DefaultSongLength())
		}

		if config.AutoAdvance.Enabled {
			t.Error("expected auto advance to be disabled by default")
		}

		if config.AutoAdvance.Countdown() != 30*time.Second {
			t.Errorf("expected 30s countdown, got %v", config.AutoAdvance.Countdown())
		}

		if err := config.Validate(); err != nil {
			t.Errorf("default config should validate: %v", err)
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

[rotation]
insertion_policy = "fair"
pad_seconds = 10

[auto_advance]
enabled = true
countdown_seconds = 5
move_current_to_front = true
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

		if config.Rotation.InsertionPolicy != "fair" {
			t.Errorf("expected fair policy, got %s", config.Rotation.InsertionPolicy)
		}

		if config.Rotation.Pad() != 10*time.Second {
			t.Errorf("expected 10s pad, got %v", config.Rotation.Pad())
		}

		if config.Rotation.DefaultSongSeconds != 240 {
			t.Errorf("expected unset keys to keep defaults, got default_song_seconds=%d", config.Rotation.DefaultSongSeconds)
		}

		if !config.AutoAdvance.Enabled || !config.AutoAdvance.MoveCurrentToFront {
			t.Error("expected auto advance settings to be loaded")
		}
	})

	t.Run("Validate", func(t *testing.T) {
		tc := []struct {
			name   string
			mutate func(*Config)
		}{
			{"unknown policy", func(c *Config) { c.Rotation.InsertionPolicy = "random" }},
			{"negative pad", func(c *Config) { c.Rotation.PadSeconds = -1 }},
			{"negative default", func(c *Config) { c.Rotation.DefaultSongSeconds = -1 }},
			{"negative countdown", func(c *Config) { c.AutoAdvance.CountdownSeconds = -1 }},
			{"empty database path", func(c *Config) { c.Database.Path = "" }},
			{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				config := DefaultConfig()
				tt.mutate(config)
				if err := config.Validate(); !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("expected ErrInvalidConfig, got %v", err)
				}
			})
		}
	})
}
