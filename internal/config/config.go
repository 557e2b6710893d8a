// Package config loads the server configuration file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the web serial monitor server settings.
type Config struct {
	// Listen is the HTTP listen address, e.g. ":50002".
	Listen string `yaml:"listen"`
	// DefaultBaudrate is used when a client does not request a baud rate or
	// requests one that cannot be parsed.
	DefaultBaudrate int `yaml:"default_baudrate"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Listen:          ":50002",
		DefaultBaudrate: 115200,
	}
}

// Load reads a YAML configuration file. Fields left out of the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&c)
	return &c, nil
}

func applyDefaults(c *Config) {
	d := Default()
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.DefaultBaudrate == 0 {
		c.DefaultBaudrate = d.DefaultBaudrate
	}
}
