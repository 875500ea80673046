package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level application configuration.
type Config struct {
	// APIBaseURL is the root URL of the project-management service.
	APIBaseURL string `mapstructure:"api_base_url" yaml:"api_base_url"`

	// WSURL is the notification WebSocket endpoint. When empty it is
	// derived from APIBaseURL.
	WSURL string `mapstructure:"ws_url" yaml:"ws_url"`

	// Theme selects the UI color theme.
	Theme string `mapstructure:"theme" yaml:"theme"`

	// CachePath is the location of the local SQLite cache.
	CachePath string `mapstructure:"cache_path" yaml:"cache_path"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
}

// DefaultConfigPath returns the default path for the configuration
// file, located at ~/.config/projectboard/config.yaml.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "config.yaml")
	}
	return filepath.Join(home, ".config", "projectboard", "config.yaml")
}

// defaultConfig returns a sensible default configuration.
func defaultConfig() *Config {
	return &Config{
		APIBaseURL: "http://localhost:8000",
		Theme:      "default",
		CachePath:  defaultCachePath(),
		LogLevel:   "info",
	}
}

// defaultCachePath returns the default SQLite cache location.
func defaultCachePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "projectboard.db")
	}
	return filepath.Join(home, ".config", "projectboard", "cache.db")
}

// Load reads configuration from the given YAML file path using Viper.
// If the file does not exist, it returns a default configuration.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Set defaults so missing keys resolve to sensible values.
	v.SetDefault("api_base_url", "http://localhost:8000")
	v.SetDefault("theme", "default")
	v.SetDefault("cache_path", defaultCachePath())
	v.SetDefault("log_level", "info")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(*os.PathError); ok {
			return defaultConfig(), nil
		}
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg := defaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return cfg, nil
}

// Save writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api_base_url", cfg.APIBaseURL)
	v.Set("ws_url", cfg.WSURL)
	v.Set("theme", cfg.Theme)
	v.Set("cache_path", cfg.CachePath)
	v.Set("log_level", cfg.LogLevel)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}

// NotificationsURL returns the WebSocket endpoint for the
// notification feed, deriving it from the API base URL when no
// explicit ws_url is configured.
func (c *Config) NotificationsURL() string {
	if c.WSURL != "" {
		return c.WSURL
	}

	url := c.APIBaseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return strings.TrimRight(url, "/") + "/ws/notifications/"
}
