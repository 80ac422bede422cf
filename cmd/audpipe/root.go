// SPDX-License-Identifier: EPL-2.0

package main

import (
	"fmt"
	"os"

	"github.com/ik5/audpipe/internal/config"
	"github.com/ik5/audpipe/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool

	// loaded by PersistentPreRunE before any subcommand runs
	appConfig *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "audpipe",
	Short: "Decode, mix and play audio files",
	Long: `audpipe decodes WAV, FLAC, Ogg Vorbis, AIFF and MP3 files, mixes them and
plays the result on an audio device or renders it to a WAV file.

Settings come from ./config.yaml, $HOME/.audpipe/config.yaml or
/etc/audpipe/config.yaml, AUDPIPE_* environment variables and flags.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.StringP("backend", "b", "malgo", "output backend (malgo, oto, portaudio, manual)")
	pf.IntP("rate", "r", 48000, "output sample rate")
	pf.IntP("channels", "c", 2, "output channel count")
	pf.String("format", "f32le", "device sample format (f32le, s16le, u8)")
	pf.Int("buffer-frames", 1024, "frames per device buffer")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text, json)")

	// Bind flags to viper
	bind("output.backend", "backend")
	bind("output.sample_rate", "rate")
	bind("output.channels", "channels")
	bind("output.format", "format")
	bind("output.buffer_frames", "buffer-frames")
	bind("logging.level", "log-level")
	bind("logging.format", "log-format")
}

func bind(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
		panic(fmt.Sprintf("binding flag %s: %v", flag, err))
	}
}

// initConfig reads in config file and ENV variables
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if verbose {
		viper.Set("logging.level", "debug")
	}
}

func loadConfig(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	if err := logger.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	appConfig = cfg
	return nil
}
