// SPDX-License-Identifier: EPL-2.0

package device

import (
	"sync"
)

// Manual is an in-process backend: nothing plays until Pull is called. It
// drives offline rendering and tests.
type Manual struct {
	formats []SampleFormat

	mu     sync.Mutex
	stream *manualStream
}

// NewManual returns a backend accepting the given sample formats, or every
// format when none are given.
func NewManual(formats ...SampleFormat) *Manual {
	if len(formats) == 0 {
		formats = []SampleFormat{FormatFloat32LE, FormatInt16LE, FormatUint8}
	}
	return &Manual{formats: formats}
}

func (m *Manual) Name() string { return "manual" }

// Supports accepts any channel count and rate. An unsupported sample format
// is replaced with the first accepted one.
func (m *Manual) Supports(want Config) (Config, bool) {
	if want.Validate() != nil {
		return Config{}, false
	}
	for _, f := range m.formats {
		if f == want.Format {
			return want, true
		}
	}
	want.Format = m.formats[0]
	return want, true
}

func (m *Manual) Open(cfg Config, fill FillFunc) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream != nil && !m.stream.isClosed() {
		return nil, Unavailable(m.Name(), nil)
	}
	m.stream = &manualStream{cfg: cfg, fill: fill}
	return m.stream, nil
}

// Pull runs one device callback into buf and returns the number of frames
// written. buf is truncated to whole frames.
func (m *Manual) Pull(buf []byte) (int, error) {
	m.mu.Lock()
	s := m.stream
	m.mu.Unlock()

	if s == nil {
		return 0, &StreamError{Backend: m.Name(), Err: ErrStreamNotRunning}
	}
	return s.pull(buf)
}

// Config returns the configuration of the open stream.
func (m *Manual) Config() (Config, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil || m.stream.isClosed() {
		return Config{}, false
	}
	return m.stream.cfg, true
}

type manualStream struct {
	cfg  Config
	fill FillFunc

	// held for the whole callback so Stop waits for a running Pull
	mu      sync.Mutex
	running bool
	closed  bool
}

func (s *manualStream) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return &StreamError{Backend: "manual", Err: ErrStreamNotRunning}
	}
	s.running = true
	return nil
}

func (s *manualStream) Stop() error {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	return nil
}

func (s *manualStream) Close() error {
	s.mu.Lock()
	s.running = false
	s.closed = true
	s.mu.Unlock()
	return nil
}

func (s *manualStream) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *manualStream) pull(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return 0, &StreamError{Backend: "manual", Err: ErrStreamNotRunning}
	}
	frames := len(buf) / s.cfg.FrameSize()
	s.fill(buf[:frames*s.cfg.FrameSize()], frames)
	return frames, nil
}
