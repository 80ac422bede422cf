// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ik5/audpipe/decoder"
	"github.com/ik5/audpipe/device"
	"github.com/ik5/audpipe/internal/logger"
	"github.com/ik5/audpipe/mixer"
	"github.com/ik5/audpipe/sink"
	"github.com/spf13/cobra"
)

// playCmd plays files one after the other on an audio device
var playCmd = &cobra.Command{
	Use:   "play <files...>",
	Short: "Play files back to back",
	Long: `Play decodes the given files or http(s) URLs and plays them back to back
without gaps on the configured output backend. Ctrl-C stops playback.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().Float64("volume", 1.0, "playback gain")
	playCmd.Flags().Float64("speed", 1.0, "playback speed (changes pitch)")
	playCmd.Flags().Int("prefetch", 16384, "frames to decode ahead per file (0 disables)")
	playCmd.Flags().Duration("start", 0, "seek the first file to this position")

	bindFlag(playCmd, "playback.volume", "volume")
	bindFlag(playCmd, "playback.speed", "speed")
	bindFlag(playCmd, "playback.prefetch_frames", "prefetch")

	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	if cfg.Output.Backend == "manual" {
		return errors.New("the manual backend does not play on its own, use render")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	want, err := cfg.Output.DeviceConfig()
	if err != nil {
		return err
	}
	backend, err := newBackend(cfg.Output.Backend)
	if err != nil {
		return err
	}

	channels, rate := mixFormat(want)
	m, err := mixer.New(channels, rate, mixer.WithLogger(logger.WithComponent("mixer")))
	if err != nil {
		return fmt.Errorf("creating mixer: %w", err)
	}

	s, err := sink.Connect(m,
		sink.WithLogger(logger.WithComponent("sink")),
		sink.WithVolume(float32(cfg.Playback.Volume)),
		sink.WithSpeed(float32(cfg.Playback.Speed)),
	)
	if err != nil {
		_ = m.Close()
		return err
	}

	d := decoder.New(nil, decoder.WithLogger(logger.WithComponent("decoder")))
	for _, name := range args {
		src, err := openSource(ctx, d, name, cfg.Playback.PrefetchFrames)
		if err != nil {
			s.Stop()
			_ = m.Close()
			return err
		}
		if err := s.Append(src); err != nil {
			_ = src.Close()
			s.Stop()
			_ = m.Close()
			return err
		}
	}

	if start, _ := cmd.Flags().GetDuration("start"); start > 0 {
		if err := s.TrySeek(start); err != nil {
			slog.Warn("Seek failed, playing from the start", slog.Any("error", err))
		}
	}

	// The output owns the mixer from here on.
	out, err := device.Open(backend, m, want, device.WithLogger(logger.WithComponent("device")))
	if err != nil {
		s.Stop()
		_ = m.Close()
		return fmt.Errorf("opening output: %w", err)
	}
	defer func() {
		if err := out.Close(); err != nil {
			slog.Error("Closing output", slog.Any("error", err))
		}
	}()

	slog.Info("Playing", slog.Int("files", len(args)), slog.String("output", out.Config().String()))

	err = s.WaitUntilEnd(ctx)
	s.Stop()
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(cmd.OutOrStdout(), "\nStopped.")
		return nil
	}
	if err != nil {
		return err
	}

	// Let the device drain its last buffer.
	time.Sleep(time.Duration(out.Config().FramesPerBuffer) * time.Second / time.Duration(out.Config().SampleRate))
	if n := out.Underruns(); n > 0 {
		slog.Warn("Playback had underruns", slog.Int64("count", n))
	}
	return nil
}
