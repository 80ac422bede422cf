// SPDX-License-Identifier: EPL-2.0

// Package malgo plays through miniaudio using github.com/gen2brain/malgo.
//
// miniaudio converts formats internally, so every device.Config is
// accepted as requested.
package malgo

import (
	"fmt"
	"log/slog"
	"sync"

	ma "github.com/gen2brain/malgo"
	"github.com/ik5/audpipe/device"
)

const name = "malgo"

// Backend opens one miniaudio context per stream.
type Backend struct {
	log *slog.Logger
}

type Option func(*Backend)

func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) { b.log = l }
}

func New(opts ...Option) *Backend {
	b := &Backend{log: slog.Default()}
	for _, opt := range opts {
		opt(b)
	}
	b.log = b.log.With("component", "device", "backend", name)
	return b
}

func (b *Backend) Name() string { return name }

func (b *Backend) Supports(want device.Config) (device.Config, bool) {
	if _, ok := formatOf(want.Format); !ok || want.Validate() != nil {
		return device.Config{}, false
	}
	return want, true
}

func formatOf(f device.SampleFormat) (ma.FormatType, bool) {
	switch f {
	case device.FormatFloat32LE:
		return ma.FormatF32, true
	case device.FormatInt16LE:
		return ma.FormatS16, true
	case device.FormatUint8:
		return ma.FormatU8, true
	}
	return ma.FormatUnknown, false
}

func (b *Backend) Open(cfg device.Config, fill device.FillFunc) (device.Stream, error) {
	format, ok := formatOf(cfg.Format)
	if !ok {
		return nil, &device.StreamError{Backend: name, Err: fmt.Errorf("%w: %v", device.ErrFormatNegotiationFailed, cfg.Format)}
	}

	ctx, err := ma.InitContext(nil, ma.ContextConfig{}, func(msg string) {
		b.log.Debug(msg)
	})
	if err != nil {
		return nil, device.Unavailable(name, fmt.Errorf("initializing context: %w", err))
	}

	dc := ma.DefaultDeviceConfig(ma.Playback)
	dc.Playback.Format = format
	dc.Playback.Channels = uint32(cfg.Channels)
	dc.SampleRate = uint32(cfg.SampleRate)
	dc.PeriodSizeInFrames = uint32(cfg.FramesPerBuffer)
	dc.Alsa.NoMMap = 1

	callbacks := ma.DeviceCallbacks{
		Data: func(out, _ []byte, frames uint32) {
			fill(out, int(frames))
		},
	}

	dev, err := ma.InitDevice(ctx.Context, dc, callbacks)
	if err != nil {
		_ = ctx.Uninit()
		ctx.Free()
		return nil, device.Unavailable(name, fmt.Errorf("initializing playback device: %w", err))
	}

	b.log.Debug("device initialized", slog.String("config", cfg.String()))

	return &stream{ctx: ctx, dev: dev}, nil
}

type stream struct {
	mu     sync.Mutex
	ctx    *ma.AllocatedContext
	dev    *ma.Device
	closed bool
}

func (s *stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return device.Unavailable(name, nil)
	}
	if s.dev.IsStarted() {
		return nil
	}
	if err := s.dev.Start(); err != nil {
		return device.Unavailable(name, err)
	}
	return nil
}

// Stop returns once miniaudio finished the running data callback.
func (s *stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || !s.dev.IsStarted() {
		return nil
	}
	return s.dev.Stop()
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	s.dev.Uninit()
	err := s.ctx.Uninit()
	s.ctx.Free()
	if err != nil {
		return fmt.Errorf("releasing context: %w", err)
	}
	return nil
}
