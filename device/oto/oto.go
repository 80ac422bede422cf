// SPDX-License-Identifier: EPL-2.0

// Package oto plays through github.com/ebitengine/oto/v3.
//
// oto allows a single context per process and its format cannot change
// once created. The first opened stream fixes it; later negotiations
// return that format so device.Open converts to it.
package oto

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	otov3 "github.com/ebitengine/oto/v3"
	"github.com/ik5/audpipe/device"
)

const name = "oto"

var (
	ctxMu     sync.Mutex
	sharedCtx *otov3.Context
	sharedCfg device.Config
)

// Backend plays through the process wide oto context.
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
	ctxMu.Lock()
	var current *device.Config
	if sharedCtx != nil {
		cfg := sharedCfg
		current = &cfg
	}
	ctxMu.Unlock()

	return negotiate(want, current)
}

// negotiate picks the configuration to open given the format of an already
// running context, if any.
func negotiate(want device.Config, current *device.Config) (device.Config, bool) {
	if want.Validate() != nil {
		return device.Config{}, false
	}
	if current != nil {
		cfg := *current
		cfg.FramesPerBuffer = want.FramesPerBuffer
		return cfg, true
	}
	if _, ok := formatOf(want.Format); !ok {
		want.Format = device.FormatFloat32LE
	}
	return want, true
}

func formatOf(f device.SampleFormat) (otov3.Format, bool) {
	switch f {
	case device.FormatFloat32LE:
		return otov3.FormatFloat32LE, true
	case device.FormatInt16LE:
		return otov3.FormatSignedInt16LE, true
	case device.FormatUint8:
		return otov3.FormatUnsignedInt8, true
	}
	return 0, false
}

// bufferSize is the device latency for framesPerBuffer frames.
func bufferSize(cfg device.Config) time.Duration {
	if cfg.FramesPerBuffer <= 0 {
		return 0
	}
	return time.Duration(cfg.FramesPerBuffer) * time.Second / time.Duration(cfg.SampleRate)
}

func sharedContext(cfg device.Config) (*otov3.Context, error) {
	ctxMu.Lock()
	defer ctxMu.Unlock()

	if sharedCtx != nil {
		if sharedCfg.Channels != cfg.Channels || sharedCfg.SampleRate != cfg.SampleRate || sharedCfg.Format != cfg.Format {
			return nil, &device.StreamError{
				Backend: name,
				Err:     fmt.Errorf("%w: context already runs %v", device.ErrFormatNegotiationFailed, sharedCfg),
			}
		}
		return sharedCtx, nil
	}

	format, ok := formatOf(cfg.Format)
	if !ok {
		return nil, &device.StreamError{Backend: name, Err: fmt.Errorf("%w: %v", device.ErrFormatNegotiationFailed, cfg.Format)}
	}

	ctx, ready, err := otov3.NewContext(&otov3.NewContextOptions{
		SampleRate:   cfg.SampleRate,
		ChannelCount: cfg.Channels,
		Format:       format,
		BufferSize:   bufferSize(cfg),
	})
	if err != nil {
		return nil, device.Unavailable(name, fmt.Errorf("creating context: %w", err))
	}
	<-ready

	sharedCtx, sharedCfg = ctx, cfg
	return ctx, nil
}

func (b *Backend) Open(cfg device.Config, fill device.FillFunc) (device.Stream, error) {
	ctx, err := sharedContext(cfg)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, device.Unavailable(name, err)
	}

	r := &reader{fill: fill, frameSize: cfg.FrameSize()}
	s := &stream{player: ctx.NewPlayer(r), ctx: ctx}
	b.log.Debug("player created", slog.String("config", cfg.String()))
	return s, nil
}

// reader adapts the pull callback to the io.Reader oto consumes.
type reader struct {
	fill      device.FillFunc
	frameSize int
}

func (r *reader) Read(p []byte) (int, error) {
	frames := len(p) / r.frameSize
	if frames == 0 {
		return 0, nil
	}
	n := frames * r.frameSize
	r.fill(p[:n], frames)
	return n, nil
}

type stream struct {
	ctx    *otov3.Context
	player *otov3.Player
}

func (s *stream) Start() error {
	if err := s.ctx.Resume(); err != nil {
		return device.Unavailable(name, err)
	}
	s.player.Play()
	return nil
}

// Stop pauses the player. oto reads players under the player lock, so no
// Read is running once Pause returns.
func (s *stream) Stop() error {
	s.player.Pause()
	return nil
}

func (s *stream) Close() error {
	if err := s.player.Close(); err != nil {
		return fmt.Errorf("closing player: %w", err)
	}
	return nil
}
