// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig         `yaml:"server"`
	Playback PlaybackConfig       `yaml:"playback"`
	Player   PlayerConfig         `yaml:"player"`
	Cues     map[string]CueConfig `yaml:"cues" validate:"required,min=1,dive"`
	Log      LogConfig            `yaml:"log"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr string `yaml:"addr" default:":8080"`
}

// PlaybackConfig represents scheduler behavior configuration.
type PlaybackConfig struct {
	// OnStartFailure selects what happens when the queue head cannot be
	// started during an automatic advance: "stall" leaves the queue
	// waiting for the next submission, "skip" discards the head and
	// tries the next one.
	OnStartFailure string `yaml:"on_start_failure" default:"stall" validate:"oneof=stall skip"`
}

// PlayerConfig represents player backend configuration.
type PlayerConfig struct {
	Type     string         `yaml:"type" default:"exec" validate:"required"`
	Settings map[string]any `yaml:"settings"`
}

// CueConfig represents one cue in the library, keyed by kind.
type CueConfig struct {
	Path     string `yaml:"path" validate:"required"`
	Priority int    `yaml:"priority" validate:"gte=0,lte=100"`
	Label    string `yaml:"label"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Output string `yaml:"output" default:"stdout"`
	Level  string `yaml:"level" default:"info"`
}

// defaultCuePriority is applied when a cue omits its priority (or sets
// it to zero, which is reserved for "unset").
const defaultCuePriority = 30

// Load loads configuration from a YAML file. Environment variables take
// precedence over file values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Map entries are not reached by defaults.Set
	for kind, c := range cfg.Cues {
		if c.Priority == 0 {
			c.Priority = defaultCuePriority
			cfg.Cues[kind] = c
		}
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("CUEBOX_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("CUEBOX_PLAYER"); v != "" {
		c.Player.Type = v
	}
	if v := os.Getenv("CUEBOX_PLAYER_COMMAND"); v != "" {
		if c.Player.Settings == nil {
			c.Player.Settings = make(map[string]any)
		}
		c.Player.Settings["command"] = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}
