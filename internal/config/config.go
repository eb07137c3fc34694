// Package config loads and validates the application configuration.
//
// DESIGN: Configuration comes from YAML files with ${VAR:-default}
// environment expansion. Default() supplies a working configuration for the
// embedded/demo use case where no file is given.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/manifoldhq/manifold/internal/monitoring"
)

// Config is the root configuration.
type Config struct {
	Logging  monitoring.LoggerConfig `yaml:"logging"`  // structured log settings
	Journal  JournalConfig           `yaml:"journal"`  // call journal settings
	Dispatch DispatchConfig          `yaml:"dispatch"` // dispatcher settings
}

// JournalConfig contains call journal settings.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"` // record resolved calls
	Path    string `yaml:"path"`    // sqlite database path, or ":memory:"
}

// DispatchConfig contains dispatcher settings.
type DispatchConfig struct {
	RecoverFromPanic  bool     `yaml:"recover_from_panic"`  // convert panics to context errors
	EnableMetrics     bool     `yaml:"enable_metrics"`      // per-method dispatch counters
	SlowCallThreshold Duration `yaml:"slow_call_threshold"` // WARN on calls slower than this
}

// Duration wraps time.Duration so YAML values can use the "500ms"/"2s" form.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"500ms\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Default returns a working configuration for running without a config file.
func Default() *Config {
	return &Config{
		Logging: monitoring.LoggerConfig{
			Level:  "info",
			Format: "auto",
			Output: "stderr",
		},
		Journal: JournalConfig{
			Enabled: false,
			Path:    "manifold.db",
		},
		Dispatch: DispatchConfig{
			RecoverFromPanic:  true,
			EnableMetrics:     true,
			SlowCallThreshold: Duration(time.Second),
		},
	}
}

// expandEnvWithDefaults expands environment variables with support for
// default values. Supports both ${VAR} and ${VAR:-default} syntax.
func expandEnvWithDefaults(s string) string {
	re := regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		parts := re.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		varName := parts[1]
		defaultValue := ""
		if len(parts) > 2 {
			defaultValue = parts[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes parses configuration from raw YAML bytes, applying env
// expansion and validation. Fields absent from the document keep their
// Default() values.
func LoadFromBytes(data []byte) (*Config, error) {
	expanded := expandEnvWithDefaults(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of trace/debug/info/warn/error, got %q", c.Logging.Level)
	}

	switch c.Logging.Format {
	case "", "json", "console", "auto":
	default:
		return fmt.Errorf("logging.format must be one of json/console/auto, got %q", c.Logging.Format)
	}

	if c.Journal.Enabled && c.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}

	if c.Dispatch.SlowCallThreshold < 0 {
		return fmt.Errorf("dispatch.slow_call_threshold must not be negative")
	}
	return nil
}
