// SPDX-License-Identifier: EPL-2.0

//go:build portaudio

package portaudio

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"sync"

	pa "github.com/gordonklaus/portaudio"
	"github.com/ik5/audpipe/device"
)

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
	return negotiate(want)
}

func (b *Backend) Open(cfg device.Config, fill device.FillFunc) (device.Stream, error) {
	if cfg.Format != device.FormatFloat32LE {
		return nil, &device.StreamError{Backend: name, Err: fmt.Errorf("%w: %v", device.ErrFormatNegotiationFailed, cfg.Format)}
	}
	if err := pa.Initialize(); err != nil {
		return nil, device.Unavailable(name, fmt.Errorf("initializing portaudio: %w", err))
	}

	cb := newCallback(cfg, fill)
	st, err := pa.OpenDefaultStream(0, cfg.Channels, float64(cfg.SampleRate), cfg.FramesPerBuffer, cb.process)
	if err != nil {
		_ = pa.Terminate()
		return nil, device.Unavailable(name, fmt.Errorf("opening stream: %w", err))
	}

	b.log.Debug("stream opened", slog.String("config", cfg.String()))
	return &stream{st: st}, nil
}

// callback decodes the bridge's little-endian float32 bytes into the
// sample slice PortAudio hands out.
type callback struct {
	channels int
	fill     device.FillFunc
	buf      []byte
}

func newCallback(cfg device.Config, fill device.FillFunc) *callback {
	return &callback{
		channels: cfg.Channels,
		fill:     fill,
		buf:      make([]byte, cfg.FramesPerBuffer*cfg.FrameSize()),
	}
}

func (c *callback) process(out []float32) {
	frames := len(out) / c.channels
	size := frames * c.channels * 4
	if len(c.buf) < size {
		c.buf = make([]byte, size)
	}
	c.fill(c.buf[:size], frames)
	for i := range frames * c.channels {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(c.buf[i*4:]))
	}
}

type stream struct {
	mu     sync.Mutex
	st     *pa.Stream
	active bool
	closed bool
}

func (s *stream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return device.Unavailable(name, nil)
	}
	if s.active {
		return nil
	}
	if err := s.st.Start(); err != nil {
		return device.Unavailable(name, err)
	}
	s.active = true
	return nil
}

// Stop waits for pending buffers to play, so no callback runs afterwards.
func (s *stream) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return nil
	}
	s.active = false
	return s.st.Stop()
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.st.Close(); err != nil {
		_ = pa.Terminate()
		return fmt.Errorf("closing stream: %w", err)
	}
	return pa.Terminate()
}
