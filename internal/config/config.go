// SPDX-License-Identifier: EPL-2.0

// Package config loads audpipe settings from a yaml file, AUDPIPE_*
// environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/ik5/audpipe/device"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. AUDPIPE_OUTPUT_BACKEND.
const EnvPrefix = "AUDPIPE"

// Backends lists the output backends the CLI knows.
var Backends = []string{"malgo", "oto", "portaudio", "manual"}

// Config holds all configuration for the application
type Config struct {
	Output   OutputConfig   `mapstructure:"output"`
	Playback PlaybackConfig `mapstructure:"playback"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// OutputConfig selects and shapes the output device
type OutputConfig struct {
	Backend      string `mapstructure:"backend"`
	SampleRate   int    `mapstructure:"sample_rate"`
	Channels     int    `mapstructure:"channels"`
	Format       string `mapstructure:"format"`
	BufferFrames int    `mapstructure:"buffer_frames"`
}

// PlaybackConfig holds the initial sink controls
type PlaybackConfig struct {
	Volume         float64 `mapstructure:"volume"`
	Speed          float64 `mapstructure:"speed"`
	PrefetchFrames int     `mapstructure:"prefetch_frames"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output.backend", "malgo")
	v.SetDefault("output.sample_rate", 48000)
	v.SetDefault("output.channels", 2)
	v.SetDefault("output.format", device.FormatFloat32LE.String())
	v.SetDefault("output.buffer_frames", device.DefaultFramesPerBuffer)
	v.SetDefault("playback.volume", 1.0)
	v.SetDefault("playback.speed", 1.0)
	v.SetDefault("playback.prefetch_frames", 16384)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// LoadConfig loads configuration from file and environment variables
// through the global viper instance, which the CLI binds its flags to.
func LoadConfig() (*Config, error) {
	return Load(viper.GetViper())
}

// Load reads configuration into a Config using v. A missing config file
// is not an error unless one was set explicitly.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.audpipe")
	v.AddConfigPath("/etc/audpipe")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Debug("No config file found, using defaults and environment variables")
	} else {
		slog.Debug("Using config file", slog.String("file", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if !slices.Contains(Backends, c.Output.Backend) {
		return &ConfigError{Field: "output.backend", Message: fmt.Sprintf("unknown backend %q, want one of %s", c.Output.Backend, strings.Join(Backends, ", "))}
	}
	if c.Output.SampleRate < 0 {
		return &ConfigError{Field: "output.sample_rate", Message: "must not be negative"}
	}
	if c.Output.Channels < 0 {
		return &ConfigError{Field: "output.channels", Message: "must not be negative"}
	}
	if _, err := device.ParseSampleFormat(c.Output.Format); err != nil {
		return &ConfigError{Field: "output.format", Message: err.Error()}
	}
	if c.Output.BufferFrames < 0 {
		return &ConfigError{Field: "output.buffer_frames", Message: "must not be negative"}
	}
	if c.Playback.Volume < 0 {
		return &ConfigError{Field: "playback.volume", Message: "must not be negative"}
	}
	if c.Playback.Speed <= 0 {
		return &ConfigError{Field: "playback.speed", Message: "must be positive"}
	}
	if c.Playback.PrefetchFrames < 0 {
		return &ConfigError{Field: "playback.prefetch_frames", Message: "must not be negative"}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: fmt.Sprintf("unknown level %q", c.Logging.Level)}
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: fmt.Sprintf("unknown format %q", c.Logging.Format)}
	}
	return nil
}

// DeviceConfig is the device request described by the output section.
// Zero channels or rate follow the source.
func (o OutputConfig) DeviceConfig() (device.Config, error) {
	format, err := device.ParseSampleFormat(o.Format)
	if err != nil {
		return device.Config{}, err
	}
	return device.Config{
		Channels:        o.Channels,
		SampleRate:      o.SampleRate,
		Format:          format,
		FramesPerBuffer: o.BufferFrames,
	}, nil
}

// ConfigError represents a configuration validation error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
