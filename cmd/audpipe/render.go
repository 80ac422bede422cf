// SPDX-License-Identifier: EPL-2.0

package main

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ik5/audpipe/decoder"
	"github.com/ik5/audpipe/device"
	"github.com/ik5/audpipe/formats/wav"
	"github.com/ik5/audpipe/internal/logger"
	"github.com/ik5/audpipe/mixer"
	"github.com/ik5/audpipe/sink"
	"github.com/spf13/cobra"
)

// renderCmd mixes files offline into a 16-bit WAV file
var renderCmd = &cobra.Command{
	Use:   "render <out.wav> <files...>",
	Short: "Mix files into a WAV file",
	Long: `Render decodes the given files, plays them all at the same time through the
mixer and writes the mix as 16-bit PCM WAV. Nothing is played on a device.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRender,
}

func init() {
	renderCmd.Flags().Duration("max-duration", 0, "stop rendering after this long (0 renders everything)")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	outPath, inputs := args[0], args[1:]
	limit, _ := cmd.Flags().GetDuration("max-duration")

	want, err := cfg.Output.DeviceConfig()
	if err != nil {
		return err
	}
	channels, rate := mixFormat(want)

	m, err := mixer.New(channels, rate, mixer.WithLogger(logger.WithComponent("mixer")))
	if err != nil {
		return fmt.Errorf("creating mixer: %w", err)
	}

	d := decoder.New(nil, decoder.WithLogger(logger.WithComponent("decoder")))
	for _, name := range inputs {
		// Decoding ahead buys nothing offline.
		src, err := openSource(cmd.Context(), d, name, 0)
		if err != nil {
			_ = m.Close()
			return err
		}

		s, err := sink.Connect(m,
			sink.WithLogger(logger.WithComponent("sink")),
			sink.WithVolume(float32(cfg.Playback.Volume)),
			sink.WithSpeed(float32(cfg.Playback.Speed)),
		)
		if err != nil {
			_ = src.Close()
			_ = m.Close()
			return err
		}
		if err := s.Append(src); err != nil {
			_ = src.Close()
			_ = m.Close()
			return err
		}
		s.Detach()
	}

	b := device.NewManual(device.FormatInt16LE)
	out, err := device.Open(b, m, device.Config{
		Channels:        channels,
		SampleRate:      rate,
		Format:          device.FormatInt16LE,
		FramesPerBuffer: want.FramesPerBuffer,
	})
	if err != nil {
		_ = m.Close()
		return fmt.Errorf("opening renderer: %w", err)
	}
	defer out.Close()

	pcm, err := render(b, m, out.Config(), limit)
	if err != nil {
		return err
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("creating %s: %w", outPath, err)
	}
	if err := wav.WritePCM16(f, rate, channels, pcm); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}

	slog.Info("Rendered", slog.String("file", outPath),
		slog.Duration("duration", time.Duration(len(pcm)/channels)*time.Second/time.Duration(rate)))
	return nil
}

// render pulls buffers until every sink finished or limit is reached.
func render(b *device.Manual, m *mixer.Mixer, cfg device.Config, limit time.Duration) ([]int16, error) {
	maxFrames := -1
	if limit > 0 {
		maxFrames = int(limit * time.Duration(cfg.SampleRate) / time.Second)
	}

	buf := make([]byte, cfg.FramesPerBuffer*cfg.FrameSize())
	var pcm []int16
	for m.Len() > 0 {
		frames, err := b.Pull(buf)
		if err != nil {
			return nil, err
		}
		if maxFrames >= 0 {
			frames = min(frames, maxFrames-len(pcm)/cfg.Channels)
		}
		for i := range frames * cfg.Channels {
			pcm = append(pcm, int16(binary.LittleEndian.Uint16(buf[i*2:])))
		}
		if maxFrames >= 0 && len(pcm)/cfg.Channels >= maxFrames {
			break
		}
	}
	return pcm, nil
}
