package mqlite

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the broker configuration read by cmd/mqlite. Every field
// has a working default; a config file only needs the keys it changes.
type Config struct {
	// Listen is the MQTT listener address.
	Listen string `yaml:"listen"`

	// MetricsListen is the prometheus exporter address. Empty disables
	// the exporter.
	MetricsListen string `yaml:"metrics_listen"`

	// MaxConnections caps concurrent client connections. 0 means
	// unlimited.
	MaxConnections int `yaml:"max_connections"`

	// MaxPacketSize caps the accepted packet size in bytes. 0 means
	// unlimited.
	MaxPacketSize uint32 `yaml:"max_packet_size"`

	// ConnectRate limits accepted connections per second. 0 means
	// unlimited.
	ConnectRate float64 `yaml:"connect_rate"`

	// ConnectBurst is the accept burst allowance when ConnectRate is
	// set.
	ConnectBurst int `yaml:"connect_burst"`

	// WriteTimeout bounds a single packet write.
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// LogLevel is one of debug, info, warn, error, none.
	LogLevel string `yaml:"log_level"`

	// DataDir, when set, stores retained messages on disk so they
	// survive a restart. Empty keeps them in memory.
	DataDir string `yaml:"data_dir"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config {
	return Config{
		Listen:         ":1883",
		MetricsListen:  ":9090",
		MaxConnections: 100,
		MaxPacketSize:  256 * 1024,
		WriteTimeout:   10 * time.Second,
		LogLevel:       "info",
	}
}

// LoadConfig reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return config, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &config); err != nil {
			return config, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return config, err
	}

	return config, nil
}

// Validate checks the configuration for contradictions.
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("mqlite: listen address must not be empty")
	}
	if c.MaxConnections < 0 {
		return errors.New("mqlite: max_connections must not be negative")
	}
	if c.ConnectRate < 0 {
		return errors.New("mqlite: connect_rate must not be negative")
	}
	if c.WriteTimeout < 0 {
		return errors.New("mqlite: write_timeout must not be negative")
	}
	return nil
}
