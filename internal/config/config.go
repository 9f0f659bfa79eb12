// Package config loads the console configuration.
//
// Sources are applied in order: built-in defaults, an optional .env file,
// an optional YAML file named by VEGA_CONFIG, then VEGA_* environment
// overrides. The result is validated before use.
package config

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-vega/pkg/dispatch"
)

// Default configuration.
const (
	DefaultRobotPort      = "5000"
	DefaultAPIURL         = "http://localhost:" + DefaultRobotPort
	DefaultListen         = ":8080"
	DefaultPollInterval   = 500 * time.Millisecond
	DefaultRequestTimeout = 2 * time.Second
	DefaultTargetsPath    = "/api/targets"
	DefaultLogLevel       = "info"
	DefaultMQTTPrefix     = "vega"
	DefaultMQTTClientID   = "vega-console"
)

// Config is the console configuration.
type Config struct {
	Robot        RobotConfig           `yaml:"robot"`
	Listen       string                `yaml:"listen"`
	StaticDir    string                `yaml:"static_dir"`
	PollInterval time.Duration         `yaml:"poll_interval"`
	Sources      dispatch.SourceConfig `yaml:"sources"`
	Log          LogConfig             `yaml:"log"`
	MQTT         MQTTConfig            `yaml:"mqtt"`
	Auth         AuthConfig            `yaml:"auth"`
}

// RobotConfig locates the robot's control API.
type RobotConfig struct {
	APIURL string `yaml:"api_url"`

	// TargetsPath is /api/targets on current firmware, /api/pose on older.
	TargetsPath    string        `yaml:"targets_path"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level     string `yaml:"level"`
	File      string `yaml:"file"`
	MaxSizeMB int    `yaml:"max_size_mb"`
}

// MQTTConfig configures the optional MQTT bridge. It is disabled when
// Broker is empty.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Prefix   string `yaml:"prefix"`
}

// Enabled reports whether a broker is configured.
func (m MQTTConfig) Enabled() bool { return m.Broker != "" }

// AuthConfig configures optional bearer-token auth. It is disabled when
// Secret is empty.
type AuthConfig struct {
	Secret string `yaml:"secret"`
}

// Enabled reports whether auth is on.
func (a AuthConfig) Enabled() bool { return a.Secret != "" }

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Robot: RobotConfig{
			APIURL:         DefaultAPIURL,
			TargetsPath:    DefaultTargetsPath,
			RequestTimeout: DefaultRequestTimeout,
		},
		Listen:       DefaultListen,
		PollInterval: DefaultPollInterval,
		Sources:      dispatch.DefaultSourceConfig(),
		Log:          LogConfig{Level: DefaultLogLevel},
		MQTT: MQTTConfig{
			ClientID: DefaultMQTTClientID,
			Prefix:   DefaultMQTTPrefix,
		},
	}
}

// RobotAPIURL returns the control API URL for a robot address.
func RobotAPIURL(robotIP string) string {
	return fmt.Sprintf("http://%s:%s", robotIP, DefaultRobotPort)
}
