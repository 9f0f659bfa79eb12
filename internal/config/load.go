package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables.
const (
	EnvConfig       = "VEGA_CONFIG"
	EnvAPIURL       = "VEGA_API_URL"
	EnvRobotIP      = "ROBOT_IP"
	EnvListen       = "VEGA_LISTEN"
	EnvPollInterval = "VEGA_POLL_INTERVAL"
	EnvLogLevel     = "VEGA_LOG_LEVEL"
	EnvLogFile      = "VEGA_LOG_FILE"
	EnvMQTTBroker   = "VEGA_MQTT_BROKER"
	EnvAuthSecret   = "VEGA_AUTH_SECRET"
)

// Load reads the configuration. A missing .env file is not an error; a
// VEGA_CONFIG that cannot be read is.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to load .env: %w", err)
	}

	cfg := Default()

	if path := os.Getenv(EnvConfig); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadFile merges a YAML file over cfg. Keys absent from the file keep
// their current values.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv applies VEGA_* overrides.
func (c *Config) applyEnv() error {
	if ip := os.Getenv(EnvRobotIP); ip != "" {
		c.Robot.APIURL = RobotAPIURL(ip)
	}
	if v := os.Getenv(EnvAPIURL); v != "" {
		c.Robot.APIURL = v
	}
	if v := os.Getenv(EnvListen); v != "" {
		c.Listen = v
	}
	if v := os.Getenv(EnvPollInterval); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvPollInterval, err)
		}
		c.PollInterval = d
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Log.File = v
	}
	if v := os.Getenv(EnvMQTTBroker); v != "" {
		c.MQTT.Broker = v
	}
	if v := os.Getenv(EnvAuthSecret); v != "" {
		c.Auth.Secret = v
	}
	return nil
}
