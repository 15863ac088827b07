// Package config loads the host configuration: where plugins and settings
// live on disk, how verbose the log is, and whether the plugin watcher
// runs. Configuration is a single YAML file; a missing file yields the
// defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the host configuration.
type Config struct {
	// DataDir is the root for all host state. Other paths default to
	// subpaths of it.
	DataDir string `yaml:"data_dir"`

	// PluginsDir holds one directory per installed plugin.
	PluginsDir string `yaml:"plugins_dir"`

	// SettingsDir holds the durable per-plugin settings files.
	SettingsDir string `yaml:"settings_dir"`

	// CacheFile is the settings cache document.
	CacheFile string `yaml:"cache_file"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`

	// WatchPlugins enables reloading plugins when their files change.
	WatchPlugins bool `yaml:"watch_plugins"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	cfg := &Config{
		DataDir:      filepath.Join(home, ".inkwell"),
		LogLevel:     "info",
		WatchPlugins: true,
	}
	cfg.fillDerived()
	return cfg
}

// fillDerived defaults the path fields that derive from DataDir.
func (c *Config) fillDerived() {
	if c.PluginsDir == "" {
		c.PluginsDir = filepath.Join(c.DataDir, "plugins")
	}
	if c.SettingsDir == "" {
		c.SettingsDir = filepath.Join(c.DataDir, "settings")
	}
	if c.CacheFile == "" {
		c.CacheFile = filepath.Join(c.DataDir, "cache.json")
	}
}

// Load reads the configuration file at path, overlaying it on the
// defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.fillDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("invalid log_level %q", c.LogLevel)
	}
}

// SlogLevel maps the configured level to slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
