// Package config holds the settings for the superstore binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full configuration.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig points at the dataset.
type DataConfig struct {
	Path     string `yaml:"path"`     // .xlsx, .xls or .csv
	DB       string `yaml:"db"`       // optional sqlite file written by import
	Watch    bool   `yaml:"watch"`    // reload when Path changes
	Debounce string `yaml:"debounce"` // e.g. "500ms"
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// LoggingConfig configures zap.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Data: DataConfig{
			Path:     "Sample - Superstore.xls",
			Debounce: "500ms",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads a YAML file over the defaults. A missing file is not an error.
// A .env file in the working directory is loaded first so its values take
// part in the environment overrides.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SUPERSTORE_DATA"); v != "" {
		c.Data.Path = v
	}
	if v := os.Getenv("SUPERSTORE_DB"); v != "" {
		c.Data.DB = v
	}
	if v := os.Getenv("SUPERSTORE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("SUPERSTORE_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks the values that cannot be defaulted.
func (c *Config) Validate() error {
	if c.Data.Path == "" && c.Data.DB == "" {
		return errors.New("config: data.path or data.db is required")
	}
	if c.Server.Addr == "" {
		return errors.New("config: server.addr is required")
	}
	if _, err := c.DebounceDuration(); err != nil {
		return err
	}
	if _, err := c.ShutdownDuration(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("config: unknown logging.format %q", c.Logging.Format)
	}
	return nil
}

// DebounceDuration parses data.debounce, defaulting to 500ms.
func (c *Config) DebounceDuration() (time.Duration, error) {
	return parseDuration("data.debounce", c.Data.Debounce, 500*time.Millisecond)
}

// ShutdownDuration parses server.shutdown_timeout, defaulting to 10s.
func (c *Config) ShutdownDuration() (time.Duration, error) {
	return parseDuration("server.shutdown_timeout", c.Server.ShutdownTimeout, 10*time.Second)
}

func parseDuration(key, v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: %s: %w", key, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: %s must not be negative", key)
	}
	return d, nil
}
