// Package config provides configuration management for netsim.
//
// Config file locations (priority order):
//  1. $NETSIM_CONFIG
//  2. ./netsim.yaml
//  3. $XDG_CONFIG_HOME/netsim/config.yaml
//  4. ~/.config/netsim/config.yaml
//  5. /etc/netsim/config.yaml
//
// Command line flags override file values.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"netsim/internal/history"
)

// Defaults for a new installation
const (
	DefaultAddr        = ":3000"
	DefaultSSHAddr     = ":2222"
	DefaultDBPath      = "./netsim.db"
	DefaultMetricsPath = "/metrics"
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, path, err
	}

	return &cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = Duration(10 * time.Second)
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = Duration(30 * time.Second)
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.Database.Path == "" {
		c.Database.Path = DefaultDBPath
	}
	if c.SSH.Addr == "" {
		c.SSH.Addr = DefaultSSHAddr
	}
	if c.History.Capacity == 0 {
		c.History.Capacity = history.DefaultCapacity
	}
}

// Validate rejects values no component can work with
func (c *Config) Validate() error {
	if c.History.Capacity < 0 {
		return fmt.Errorf("history.capacity must be positive, got %d", c.History.Capacity)
	}
	if c.Lab.Watch && c.Lab.Path == "" {
		return fmt.Errorf("lab.watch requires lab.path")
	}
	return nil
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("HTTP: %s, Database: %s, History: %d", c.Server.Addr, c.Database.Path, c.History.Capacity)
	if c.SSH.Enabled {
		summary += fmt.Sprintf(", SSH: %s", c.SSH.Addr)
	}
	if c.Metrics.IsEnabled() {
		summary += fmt.Sprintf(", Metrics: %s", c.Metrics.Path)
	}
	if c.Lab.Path != "" {
		summary += fmt.Sprintf(", Lab: %s", c.Lab.Path)
		if c.Lab.Watch {
			summary += " (watched)"
		}
	}
	return summary
}
