// Package config loads client configuration from an optional YAML file
// overlaid with environment variables.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config holds everything the client needs to run.
type Config struct {
	ServerURL      string        `env:"POKER_SERVER_URL" yaml:"server_url"`
	StatePath      string        `env:"POKER_STATE_PATH" yaml:"state_path"`
	ReconnectDelay time.Duration `env:"POKER_RECONNECT_DELAY" yaml:"reconnect_delay"`
	LogLevel       string        `env:"POKER_LOG_LEVEL" yaml:"log_level"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ServerURL:      "ws://localhost:3000/ws",
		StatePath:      "pokerpad.db",
		ReconnectDelay: 5 * time.Second,
		LogLevel:       "info",
	}
}

// Load builds the effective configuration: defaults, then the YAML
// file at path (if path is non-empty and the file exists), then
// environment variables on top.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file is fine; env and defaults apply.
		case err != nil:
			return cfg, fmt.Errorf("read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
