// SPDX-License-Identifier: EPL-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audpipe/device"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolated returns a viper instance that only sees dir.
func isolated(t *testing.T) *viper.Viper {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	return viper.New()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(isolated(t))
	require.NoError(t, err)

	assert.Equal(t, "malgo", cfg.Output.Backend)
	assert.Equal(t, 48000, cfg.Output.SampleRate)
	assert.Equal(t, 2, cfg.Output.Channels)
	assert.Equal(t, "f32le", cfg.Output.Format)
	assert.Equal(t, device.DefaultFramesPerBuffer, cfg.Output.BufferFrames)
	assert.InDelta(t, 1.0, cfg.Playback.Volume, 1e-9)
	assert.InDelta(t, 1.0, cfg.Playback.Speed, 1e-9)
	assert.Equal(t, 16384, cfg.Playback.PrefetchFrames)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)

	assert.NoError(t, cfg.Validate())
}

func TestLoad_ConfigFile(t *testing.T) {
	v := isolated(t)
	yaml := []byte(`
output:
  backend: oto
  sample_rate: 44100
  format: s16le
playback:
  volume: 0.5
logging:
  format: json
`)
	require.NoError(t, os.WriteFile("config.yaml", yaml, 0o600))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "oto", cfg.Output.Backend)
	assert.Equal(t, 44100, cfg.Output.SampleRate)
	assert.Equal(t, "s16le", cfg.Output.Format)
	assert.Equal(t, 2, cfg.Output.Channels, "unset keys keep their default")
	assert.InDelta(t, 0.5, cfg.Playback.Volume, 1e-9)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "config.yaml", filepath.Base(v.ConfigFileUsed()))
}

func TestLoad_Environment(t *testing.T) {
	v := isolated(t)
	t.Setenv("AUDPIPE_OUTPUT_BACKEND", "manual")
	t.Setenv("AUDPIPE_OUTPUT_SAMPLE_RATE", "22050")
	t.Setenv("AUDPIPE_PLAYBACK_SPEED", "1.5")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "manual", cfg.Output.Backend)
	assert.Equal(t, 22050, cfg.Output.SampleRate)
	assert.InDelta(t, 1.5, cfg.Playback.Speed, 1e-9)
}

func TestLoad_ExplicitFileMissing(t *testing.T) {
	v := isolated(t)
	v.SetConfigFile(filepath.Join(t.TempDir(), "nope.yaml"))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	v := isolated(t)
	require.NoError(t, os.WriteFile("config.yaml", []byte("output: [unclosed"), 0o600))

	_, err := Load(v)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg, err := Load(isolated(t))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		field  string
		mutate func(*Config)
	}{
		{"output.backend", func(c *Config) { c.Output.Backend = "jack" }},
		{"output.sample_rate", func(c *Config) { c.Output.SampleRate = -1 }},
		{"output.channels", func(c *Config) { c.Output.Channels = -2 }},
		{"output.format", func(c *Config) { c.Output.Format = "s24le" }},
		{"output.buffer_frames", func(c *Config) { c.Output.BufferFrames = -1 }},
		{"playback.volume", func(c *Config) { c.Playback.Volume = -0.1 }},
		{"playback.speed", func(c *Config) { c.Playback.Speed = 0 }},
		{"playback.prefetch_frames", func(c *Config) { c.Playback.PrefetchFrames = -1 }},
		{"logging.level", func(c *Config) { c.Logging.Level = "trace" }},
		{"logging.format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			cfg := valid(t)
			tt.mutate(cfg)

			err := cfg.Validate()
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, err.Error(), tt.field+": ")
		})
	}
}

func TestOutputConfig_DeviceConfig(t *testing.T) {
	oc := OutputConfig{Backend: "manual", SampleRate: 44100, Channels: 1, Format: "u8", BufferFrames: 256}
	dc, err := oc.DeviceConfig()
	require.NoError(t, err)
	assert.Equal(t, device.Config{Channels: 1, SampleRate: 44100, Format: device.FormatUint8, FramesPerBuffer: 256}, dc)

	oc.Format = "pcm"
	_, err = oc.DeviceConfig()
	assert.ErrorIs(t, err, device.ErrUnknownSampleFormat)
}
