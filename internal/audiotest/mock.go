// SPDX-License-Identifier: EPL-2.0

// Package audiotest holds sources shared by tests across packages.
package audiotest

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"
	"time"
)

var (
	// ErrMock is returned by sources built with NewFailingSource.
	ErrMock = errors.New("mock source failure")
	// ErrPastEnd is returned by MockSource.Seek beyond the last frame.
	ErrPastEnd = errors.New("seek past end")
)

// MockSource is a test helper that generates audio data for testing.
// It implements audio.Source, audio.Seeker and audio.Durationer without
// importing the audio package to avoid cycles.
type MockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // Total samples to generate (per channel)
	generated    int // Samples generated so far (per channel)
	waveform     func(sample int, channel int) float32
	failAt       int // frame index that triggers ErrMock, -1 disables

	closed atomic.Bool
}

// NewMockSource creates a new mock audio source.
// totalSamples is the total number of samples per channel to generate.
// waveform is a function that generates sample values given sample index and channel.
func NewMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *MockSource {
	return &MockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		waveform:     waveform,
		failAt:       -1,
	}
}

// NewSilentSource creates a mock source that generates silence (all zeros).
func NewSilentSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		return 0.0
	})
}

// NewSineSource creates a mock source that generates a sine wave.
func NewSineSource(sampleRate, channels, totalSamples int, frequency float64) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		t := float64(sample) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// NewConstantSource creates a mock source with constant value.
func NewConstantSource(sampleRate, channels, totalSamples int, value float32) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		return value
	})
}

// NewRampSource yields the frame index as the value of every channel.
// Useful to tell exactly where playback is.
func NewRampSource(sampleRate, channels, totalSamples int) *MockSource {
	return NewMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		return float32(sample)
	})
}

// NewFailingSource yields value until failAt frames were produced and then
// returns ErrMock.
func NewFailingSource(sampleRate, channels, failAt int, value float32) *MockSource {
	m := NewConstantSource(sampleRate, channels, math.MaxInt32, value)
	m.failAt = failAt
	return m
}

func (m *MockSource) SampleRate() int { return m.sampleRate }
func (m *MockSource) Channels() int   { return m.channels }

func (m *MockSource) Close() error {
	m.closed.Store(true)
	return nil
}

// Closed reports whether Close was called.
func (m *MockSource) Closed() bool { return m.closed.Load() }

// Reset resets the generated sample counter to allow re-reading
func (m *MockSource) Reset() {
	m.generated = 0
}

func (m *MockSource) ReadSamples(dst []float32) (int, error) {
	if m.failAt >= 0 && m.generated >= m.failAt {
		return 0, ErrMock
	}
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	framesToWrite := min(len(dst)/m.channels, m.totalSamples-m.generated)
	if m.failAt >= 0 {
		framesToWrite = min(framesToWrite, m.failAt-m.generated)
	}

	for frame := range framesToWrite {
		sampleIndex := m.generated + frame
		for ch := range m.channels {
			dst[frame*m.channels+ch] = m.waveform(sampleIndex, ch)
		}
	}

	m.generated += framesToWrite
	samplesWritten := framesToWrite * m.channels

	if m.generated >= m.totalSamples {
		return samplesWritten, io.EOF
	}

	return samplesWritten, nil
}

func (m *MockSource) Seek(pos time.Duration) error {
	frame := int(pos * time.Duration(m.sampleRate) / time.Second)
	if frame < 0 || frame > m.totalSamples {
		return fmt.Errorf("seek to %s: %w", pos, ErrPastEnd)
	}
	m.generated = frame
	return nil
}

func (m *MockSource) TotalDuration() (time.Duration, bool) {
	return time.Duration(m.totalSamples) * time.Second / time.Duration(m.sampleRate), true
}

// Position reports how far into the source reading has progressed.
func (m *MockSource) Position() time.Duration {
	return time.Duration(m.generated) * time.Second / time.Duration(m.sampleRate)
}

// UnseekableSource hides the Seek method of the wrapped source.
type UnseekableSource struct {
	Src interface {
		SampleRate() int
		Channels() int
		ReadSamples(dst []float32) (int, error)
		Close() error
	}
}

func (u UnseekableSource) SampleRate() int                        { return u.Src.SampleRate() }
func (u UnseekableSource) Channels() int                          { return u.Src.Channels() }
func (u UnseekableSource) ReadSamples(dst []float32) (int, error) { return u.Src.ReadSamples(dst) }
func (u UnseekableSource) Close() error                           { return u.Src.Close() }
