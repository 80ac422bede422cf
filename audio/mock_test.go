// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"math"
	"time"
)

// mockSource is a test helper that generates audio data for testing.
// It implements the Source interface and can generate various waveforms.
type mockSource struct {
	sampleRate   int
	channels     int
	totalSamples int // Total samples to generate (per channel)
	generated    int // Samples generated so far (per channel)
	waveform     func(sample int, channel int) float32
}

// newMockSource creates a new mock audio source.
// totalSamples is the total number of samples per channel to generate.
// waveform is a function that generates sample values given sample index and channel.
func newMockSource(sampleRate, channels, totalSamples int, waveform func(sample int, channel int) float32) *mockSource {
	return &mockSource{
		sampleRate:   sampleRate,
		channels:     channels,
		totalSamples: totalSamples,
		generated:    0,
		waveform:     waveform,
	}
}

// newSilentSource creates a mock source that generates silence (all zeros).
func newSilentSource(sampleRate, channels, totalSamples int) *mockSource {
	return newMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		return 0.0
	})
}

// newSineSource creates a mock source that generates a sine wave.
func newSineSource(sampleRate, channels, totalSamples int, frequency float64) *mockSource {
	return newMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		t := float64(sample) / float64(sampleRate)
		return float32(math.Sin(2 * math.Pi * frequency * t))
	})
}

// newConstantSource creates a mock source with constant value.
func newConstantSource(sampleRate, channels, totalSamples int, value float32) *mockSource {
	return newMockSource(sampleRate, channels, totalSamples, func(sample int, channel int) float32 {
		return value
	})
}

func (m *mockSource) SampleRate() int { return m.sampleRate }
func (m *mockSource) Channels() int   { return m.channels }
func (m *mockSource) Close() error    { return nil }

func (m *mockSource) ReadSamples(dst []float32) (int, error) {
	if m.generated >= m.totalSamples {
		return 0, io.EOF
	}

	// Calculate how many frames we can write
	framesRequested := len(dst) / m.channels
	framesAvailable := m.totalSamples - m.generated
	framesToWrite := framesRequested
	if framesToWrite > framesAvailable {
		framesToWrite = framesAvailable
	}

	// Generate samples
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

func (m *mockSource) Seek(pos time.Duration) error {
	frame := int(DurationToFrames(pos, m.sampleRate))
	if frame > m.totalSamples {
		return &SeekError{Pos: pos, Err: ErrSeekOutOfRange}
	}
	m.generated = frame
	return nil
}

func (m *mockSource) TotalDuration() (time.Duration, bool) {
	return FramesToDuration(int64(m.totalSamples), m.sampleRate), true
}

// unseekable hides every optional capability of the wrapped source.
type unseekable struct{ Source }

// rateSwitchSource plays a at its rate and then b at its own rate, reporting
// the format of whichever part is current.
type rateSwitchSource struct {
	a, b Source
	onB  bool
}

func (r *rateSwitchSource) cur() Source {
	if r.onB {
		return r.b
	}
	return r.a
}

func (r *rateSwitchSource) SampleRate() int { return r.cur().SampleRate() }
func (r *rateSwitchSource) Channels() int   { return r.cur().Channels() }
func (r *rateSwitchSource) Close() error    { return nil }

func (r *rateSwitchSource) ReadSamples(dst []float32) (int, error) {
	n, err := r.cur().ReadSamples(dst)
	if err == io.EOF && !r.onB {
		r.onB = true
		if n == 0 {
			return r.b.ReadSamples(dst)
		}
		return n, nil
	}
	return n, err
}
