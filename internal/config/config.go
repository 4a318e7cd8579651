// ABOUTME: Configuration management for postbox with YAML config loading.
// ABOUTME: Handles API settings, output and log preferences, and ~ expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied when a field is left empty.
const (
	DefaultBaseURL  = "https://jsonplaceholder.typicode.com"
	DefaultPageSize = 10
	DefaultTimeout  = 30 * time.Second
	DefaultLogLevel = "info"
)

// Config stores postbox configuration loaded from ~/.config/postbox/config.yaml.
type Config struct {
	API    APIConfig    `yaml:"api"`
	Output OutputConfig `yaml:"output"`
	Log    LogConfig    `yaml:"log"`
}

// APIConfig holds remote posts API settings.
type APIConfig struct {
	BaseURL           string        `yaml:"base_url"`
	PageSize          int           `yaml:"page_size"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
}

// OutputConfig holds CLI output preferences.
type OutputConfig struct {
	Colors *bool `yaml:"colors,omitempty"`
}

// LogConfig holds logging preferences.
type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// BaseURL returns the configured API base URL or the default.
func (c *Config) BaseURL() string {
	if c.API.BaseURL == "" {
		return DefaultBaseURL
	}
	return strings.TrimRight(c.API.BaseURL, "/")
}

// PageSize returns the configured page size or the default.
func (c *Config) PageSize() int {
	if c.API.PageSize <= 0 {
		return DefaultPageSize
	}
	return c.API.PageSize
}

// Timeout returns the configured request timeout or the default.
func (c *Config) Timeout() time.Duration {
	if c.API.Timeout <= 0 {
		return DefaultTimeout
	}
	return c.API.Timeout
}

// Colors reports whether colored output is enabled. Defaults to true.
func (c *Config) Colors() bool {
	if c.Output.Colors == nil {
		return true
	}
	return *c.Output.Colors
}

// LogLevel returns the configured log level or the default.
func (c *Config) LogLevel() string {
	if c.Log.Level == "" {
		return DefaultLogLevel
	}
	return c.Log.Level
}

// LogFile returns the expanded log file path, or empty if file logging is off.
func (c *Config) LogFile() (string, error) {
	return ExpandPath(c.Log.File)
}

// GetConfigPath returns the config file path.
func GetConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, ".config")
	}
	return filepath.Join(configDir, "postbox", "config.yaml"), nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return home, nil
	}
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		return filepath.Join(home, path[2:]), nil
	}
	return path, nil
}

// Load reads config from disk. Returns default config if file doesn't exist.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if cfg.API.PageSize < 0 {
		return nil, fmt.Errorf("api.page_size must be positive, got %d", cfg.API.PageSize)
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path, err := GetConfigPath()
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
