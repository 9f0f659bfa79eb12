package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks the configuration.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Robot.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("robot api_url %q must be an http(s) URL", c.Robot.APIURL)
	}
	if !strings.HasPrefix(c.Robot.TargetsPath, "/") {
		return fmt.Errorf("robot targets_path %q must start with /", c.Robot.TargetsPath)
	}
	if c.Robot.RequestTimeout <= 0 {
		return fmt.Errorf("robot request_timeout must be positive, got %v", c.Robot.RequestTimeout)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("log level %q must be debug, info, warn or error", c.Log.Level)
	}

	for src, rule := range c.Sources {
		if !src.Valid() {
			return fmt.Errorf("sources: unknown source %d", src)
		}
		for _, d := range rule.Excluded {
			if !d.Valid() {
				return fmt.Errorf("sources: %s: unknown direction %q", src, d)
			}
		}
	}

	if c.MQTT.Enabled() {
		if _, err := url.Parse(c.MQTT.Broker); err != nil {
			return fmt.Errorf("mqtt broker %q: %w", c.MQTT.Broker, err)
		}
		if c.MQTT.Prefix == "" || strings.ContainsAny(c.MQTT.Prefix, "+#") {
			return fmt.Errorf("mqtt prefix %q must be a plain topic", c.MQTT.Prefix)
		}
	}
	return nil
}
