// SPDX-License-Identifier: EPL-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/decoder"
	"github.com/ik5/audpipe/device"
	"github.com/ik5/audpipe/device/malgo"
	"github.com/ik5/audpipe/device/oto"
	"github.com/ik5/audpipe/device/portaudio"
	"github.com/ik5/audpipe/internal/logger"
)

func isURL(name string) bool {
	return strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://")
}

// openSource decodes a file or URL and, when prefetch is positive, decodes
// it ahead on a background goroutine.
func openSource(ctx context.Context, d *decoder.Dispatcher, name string, prefetch int) (audio.Source, error) {
	var (
		src audio.Source
		err error
	)
	if isURL(name) {
		src, err = d.OpenURL(name, http.DefaultClient)
	} else {
		src, err = d.Open(name)
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", name, err)
	}

	if dur, ok := audio.TotalDuration(src); ok {
		slog.Info("Opened source", slog.String("name", name), slog.Duration("duration", dur),
			slog.Int("channels", src.Channels()), slog.Int("sample_rate", src.SampleRate()))
	}

	if prefetch <= 0 {
		return src, nil
	}
	p, err := audio.Prefetch(ctx, src, prefetch)
	if err != nil {
		_ = src.Close()
		return nil, fmt.Errorf("prefetching %s: %w", name, err)
	}
	return p, nil
}

func newBackend(name string) (device.Backend, error) {
	log := logger.WithComponent("device")
	switch name {
	case "malgo":
		return malgo.New(malgo.WithLogger(log)), nil
	case "oto":
		return oto.New(oto.WithLogger(log)), nil
	case "portaudio":
		return portaudio.New(portaudio.WithLogger(log)), nil
	case "manual":
		return device.NewManual(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", name)
}

// mixFormat is the mixer format for a device request; zero fields fall back
// to 48 kHz stereo.
func mixFormat(want device.Config) (channels, rate int) {
	channels, rate = want.Channels, want.SampleRate
	if channels == 0 {
		channels = 2
	}
	if rate == 0 {
		rate = 48000
	}
	return channels, rate
}
