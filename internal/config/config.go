// Package config holds the application configuration and its YAML loader.
package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/sadopc/studyr/internal/store"
)

// MaxTimerDuration is the largest focus or rest length the settings form
// can express.
const MaxTimerDuration = 24*time.Hour + 59*time.Minute + 59*time.Second

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Storage StorageConfig     `yaml:"storage"`
	Timer   TimerConfig       `yaml:"timer"`
	Goals   GoalsConfig       `yaml:"goals"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Timer.Validate(); err != nil {
		return err
	}
	return c.Goals.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	LogFile  string     `yaml:"log_file"`
}

// StorageConfig holds the SQLite database location.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// TimerConfig holds the countdown lengths and scheduler cadence.
type TimerConfig struct {
	Focus time.Duration `yaml:"focus"`
	Rest  time.Duration `yaml:"rest"`
	Tick  time.Duration `yaml:"tick"`
	Grace time.Duration `yaml:"grace"`
}

// Validate validates the timer configuration.
func (c *TimerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Focus, validation.Required, validation.Min(time.Second), validation.Max(MaxTimerDuration)),
		validation.Field(&c.Rest, validation.Required, validation.Min(time.Second), validation.Max(MaxTimerDuration)),
		validation.Field(&c.Tick, validation.Required, validation.Min(time.Millisecond)),
		validation.Field(&c.Grace, validation.Min(time.Duration(0))),
	)
}

// GoalsConfig holds the daily focus goal.
type GoalsConfig struct {
	DailyMinutes float64 `yaml:"daily_minutes"`
}

// Validate validates the goals configuration.
func (c *GoalsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DailyMinutes, validation.Min(0.0)),
	)
}

// NewDefaultConfig returns the configuration used when no file exists.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Timer: TimerConfig{
			Focus: 25 * time.Minute,
			Rest:  5 * time.Minute,
			Tick:  time.Second,
			Grace: 800 * time.Millisecond,
		},
		Goals: GoalsConfig{
			DailyMinutes: 120,
		},
	}
}

// Dir returns the per-user directory holding the database, log and config.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studyr"), nil
}

// DefaultPath returns the config file location used when --config is unset.
func DefaultPath() string {
	dir, err := Dir()
	if err != nil {
		return "studyr.yaml"
	}
	return filepath.Join(dir, "config.yaml")
}

// ResolvePaths fills empty storage and log paths with their defaults.
func (c *Config) ResolvePaths() error {
	if c.Storage.Path != "" && c.App.LogFile != "" {
		return nil
	}
	dir, err := Dir()
	if err != nil {
		return err
	}
	if c.Storage.Path == "" {
		if c.Storage.Path, err = store.DefaultDBPath(); err != nil {
			return err
		}
	}
	if c.App.LogFile == "" {
		c.App.LogFile = filepath.Join(dir, "studyr.log")
	}
	return nil
}
