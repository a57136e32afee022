package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database    DatabaseConfig    `toml:"database"`
	Rotation    RotationConfig    `toml:"rotation"`
	AutoAdvance AutoAdvanceConfig `toml:"auto_advance"`
	Logging     LoggingConfig     `toml:"logging"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// RotationConfig contains singer placement and wait-time estimation settings.
type RotationConfig struct {
	InsertionPolicy    string `toml:"insertion_policy"`
	PadSeconds         int    `toml:"pad_seconds"`
	DefaultSongSeconds int    `toml:"default_song_seconds"`
	SkipEmptySingers   bool   `toml:"skip_empty_singers"`
}

// AutoAdvanceConfig contains settings for automatically starting the next singer.
type AutoAdvanceConfig struct {
	Enabled            bool `toml:"enabled"`
	CountdownSeconds   int  `toml:"countdown_seconds"`
	MoveCurrentToFront bool `toml:"move_current_to_front"`
}

// LoggingConfig contains log level and the TUI log file location.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// Pad returns the per-singer pad time.
func (c RotationConfig) Pad() time.Duration {
	return time.Duration(c.PadSeconds) * time.Second
}

// DefaultSongLength returns the assumed length of a song with no known duration.
func (c RotationConfig) DefaultSongLength() time.Duration {
	return time.Duration(c.DefaultSongSeconds) * time.Second
}

// Countdown returns the delay between a performance ending and the next one starting.
func (c AutoAdvanceConfig) Countdown() time.Duration {
	return time.Duration(c.CountdownSeconds) * time.Second
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Rotation.InsertionPolicy) {
	case "", "bottom", "fair", "next":
	default:
		return fmt.Errorf("%w: unknown insertion_policy %q", ErrInvalidConfig, c.Rotation.InsertionPolicy)
	}
	if c.Rotation.PadSeconds < 0 {
		return fmt.Errorf("%w: pad_seconds must not be negative", ErrInvalidConfig)
	}
	if c.Rotation.DefaultSongSeconds < 0 {
		return fmt.Errorf("%w: default_song_seconds must not be negative", ErrInvalidConfig)
	}
	if c.AutoAdvance.CountdownSeconds < 0 {
		return fmt.Errorf("%w: countdown_seconds must not be negative", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
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

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
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
