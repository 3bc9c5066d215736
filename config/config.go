// Package config provides configuration loading and management for Workbench.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete Workbench configuration
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	Repo  RepoConfig  `yaml:"repo"`
	NATS  NATSConfig  `yaml:"nats"`
	Watch WatchConfig `yaml:"watch"`
}

// HTTPConfig configures the REST server
type HTTPConfig struct {
	// Addr is the listen address for the API server
	Addr string `yaml:"addr"`
	// RequestTimeout bounds each request's handling time
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// RepoConfig configures the repository settings
type RepoConfig struct {
	// Path is the repository root path (current directory if empty)
	Path string `yaml:"path"`
	// DataDir is the workbench data directory relative to Path
	DataDir string `yaml:"data_dir"`
}

// NATSConfig configures the NATS connection
type NATSConfig struct {
	// URL is the NATS server URL (empty = no NATS; file storage only)
	URL string `yaml:"url"`
}

// WatchConfig configures the artifact file watcher
type WatchConfig struct {
	// Enabled turns the watcher on
	Enabled bool `yaml:"enabled"`
	// Patterns are doublestar globs, relative to the data directory,
	// selecting the artifact files to watch
	Patterns []string `yaml:"patterns"`
	// Debounce is how long to wait for more changes before processing
	Debounce time.Duration `yaml:"debounce"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Addr:           "localhost:8713",
			RequestTimeout: 30 * time.Second,
		},
		Repo: RepoConfig{
			Path:    "", // Current directory
			DataDir: ".workbench",
		},
		NATS: NATSConfig{
			URL: "",
		},
		Watch: WatchConfig{
			Enabled:  true,
			Patterns: []string{"artifacts/**/*.json", "artifacts/**/*.md"},
			Debounce: 200 * time.Millisecond,
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	if c.HTTP.RequestTimeout <= 0 {
		return fmt.Errorf("http.request_timeout must be positive")
	}
	if c.Repo.DataDir == "" {
		return fmt.Errorf("repo.data_dir is required")
	}
	if c.Watch.Enabled && len(c.Watch.Patterns) == 0 {
		return fmt.Errorf("watch.patterns is required when watching is enabled")
	}
	return nil
}

// DataPath returns the absolute workbench data directory.
func (c *Config) DataPath() string {
	return filepath.Join(c.Repo.Path, c.Repo.DataDir)
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values)
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// HTTP
	if other.HTTP.Addr != "" {
		c.HTTP.Addr = other.HTTP.Addr
	}
	if other.HTTP.RequestTimeout != 0 {
		c.HTTP.RequestTimeout = other.HTTP.RequestTimeout
	}

	// Repo
	if other.Repo.Path != "" {
		c.Repo.Path = other.Repo.Path
	}
	if other.Repo.DataDir != "" {
		c.Repo.DataDir = other.Repo.DataDir
	}

	// NATS
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}

	// Watch
	if len(other.Watch.Patterns) > 0 {
		c.Watch.Patterns = other.Watch.Patterns
	}
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
}
