// Package config provides configuration loading and management for cadence.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the complete cadence configuration
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	NATS    NATSConfig    `yaml:"nats"`
	Metrics MetricsConfig `yaml:"metrics"`
	Sweep   SweepConfig   `yaml:"sweep"`
}

// StoreConfig selects and configures the Task Store backend
type StoreConfig struct {
	// Driver is the backend: "sqlite" (default) or "nats"
	Driver string `yaml:"driver"`
	// Path is the SQLite database file (sqlite driver only)
	Path string `yaml:"path"`
}

// NATSConfig configures the NATS connection (nats driver only)
type NATSConfig struct {
	// URL is the NATS server URL (empty = use embedded server)
	URL string `yaml:"url"`
	// Embedded indicates whether to run an embedded NATS server
	Embedded bool `yaml:"embedded"`
}

// MetricsConfig configures the Prometheus endpoint for serve mode
type MetricsConfig struct {
	// Listen is the address for the /metrics endpoint
	Listen string `yaml:"listen"`
}

// SweepConfig configures the periodic overdue sweep in serve mode
type SweepConfig struct {
	// Schedule is a cron expression; the sweep refreshes overdue gauges
	// and logs a digest. It never mutates tasks.
	Schedule string `yaml:"schedule"`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver: "sqlite",
			Path:   defaultDBPath(),
		},
		NATS: NATSConfig{
			Embedded: true,
		},
		Metrics: MetricsConfig{
			Listen: ":9190",
		},
		Sweep: SweepConfig{
			Schedule: "@hourly",
		},
	}
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "cadence.db"
	}
	return filepath.Join(home, ".local", "share", "cadence", "cadence.db")
}

// Merge overlays non-zero fields from other onto c
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}
	if other.Store.Driver != "" {
		c.Store.Driver = other.Store.Driver
	}
	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
		c.NATS.Embedded = other.NATS.Embedded
	}
	if other.Metrics.Listen != "" {
		c.Metrics.Listen = other.Metrics.Listen
	}
	if other.Sweep.Schedule != "" {
		c.Sweep.Schedule = other.Sweep.Schedule
	}
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case "nats":
		if c.NATS.URL == "" && !c.NATS.Embedded {
			return fmt.Errorf("nats.url is required when nats.embedded is false")
		}
	default:
		return fmt.Errorf("unknown store.driver: %q (want sqlite or nats)", c.Store.Driver)
	}
	return nil
}

// LoadFromFile loads a Config from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the Config to a YAML file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
