package host

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pelletier/go-toml/v2"

	"github.com/tailored-agentic-units/rtcallbacks/observability"
)

const (
	defaultThreads          = 4
	defaultClassesPerThread = 8
	defaultStallWarning     = "250ms"
)

// Config holds initialization parameters for a simulated runtime.
type Config struct {
	Observer           string `json:"observer,omitempty" toml:"observer,omitempty"`
	LogLevel           string `json:"log_level,omitempty" toml:"log_level,omitempty"`
	StallWarning       string `json:"stall_warning,omitempty" toml:"stall_warning,omitempty"` // time.ParseDuration syntax; "0s" disables.
	Threads            int    `json:"threads,omitempty" toml:"threads,omitempty"`
	ClassesPerThread   int    `json:"classes_per_thread,omitempty" toml:"classes_per_thread,omitempty"`
	DebuggerConfigured bool   `json:"debugger_configured,omitempty" toml:"debugger_configured,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Observer:         "slog",
		LogLevel:         "info",
		StallWarning:     defaultStallWarning,
		Threads:          defaultThreads,
		ClassesPerThread: defaultClassesPerThread,
	}
}

// Merge applies non-zero values from source into c.
func (c *Config) Merge(source *Config) {
	if source.Observer != "" {
		c.Observer = source.Observer
	}
	if source.LogLevel != "" {
		c.LogLevel = source.LogLevel
	}
	if source.StallWarning != "" {
		c.StallWarning = source.StallWarning
	}
	if source.Threads > 0 {
		c.Threads = source.Threads
	}
	if source.ClassesPerThread > 0 {
		c.ClassesPerThread = source.ClassesPerThread
	}
	if source.DebuggerConfigured {
		c.DebuggerConfigured = true
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs *multierror.Error

	if _, err := observability.GetObserver(c.Observer); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("observer: %w", err))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("log_level: %w", err))
	}
	if d, err := time.ParseDuration(c.StallWarning); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("stall_warning: %w", err))
	} else if d < 0 {
		errs = multierror.Append(errs, fmt.Errorf("stall_warning: must not be negative, got %s", d))
	}
	if c.Threads < 0 {
		errs = multierror.Append(errs, fmt.Errorf("threads: must not be negative, got %d", c.Threads))
	}
	if c.ClassesPerThread < 0 {
		errs = multierror.Append(errs, fmt.Errorf("classes_per_thread: must not be negative, got %d", c.ClassesPerThread))
	}

	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// StallWarningDuration returns the parsed stall warning threshold, or zero
// when it is unset or malformed.
func (c *Config) StallWarningDuration() time.Duration {
	d, err := time.ParseDuration(c.StallWarning)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// SlogLevel returns the parsed log level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, err
	}
	return level, nil
}

// LoadConfig reads a JSON or TOML config file (chosen by extension), merges
// it with defaults, and validates the result.
func LoadConfig(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml":
		err = toml.Unmarshal(data, &loaded)
	default:
		err = json.Unmarshal(data, &loaded)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
