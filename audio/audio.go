// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"time"
)

// Source is a lazy, pull based stream of interleaved float32 samples.
type Source interface {
	// SampleRate of the samples the next ReadSamples call returns, in Hz.
	SampleRate() int
	// Channels of the samples the next ReadSamples call returns (1=mono, 2=stereo).
	Channels() int
	// ReadSamples fills dst with interleaved float32 samples in [-1,1].
	// Returns number of float32 values written (not frames), always a whole
	// number of frames. A single call never crosses a change of Channels or
	// SampleRate. When err == io.EOF the stream is finished; n may still be > 0.
	ReadSamples(dst []float32) (n int, err error)

	// Close releases any resources.
	Close() error
}

// Seeker is implemented by sources that can move their read position.
type Seeker interface {
	Seek(pos time.Duration) error
}

// Durationer is implemented by sources that may know their total length.
type Durationer interface {
	TotalDuration() (time.Duration, bool)
}

// Positioner is implemented by sources that track their playback position.
type Positioner interface {
	Position() time.Duration
}

// Decoder constructs a Source from an input reader.
type Decoder interface {
	Decode(r io.Reader) (Source, error)
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(r io.Reader) (Source, error)

func (f DecoderFunc) Decode(r io.Reader) (Source, error) { return f(r) }

// Seek moves src to pos when src implements Seeker.
func Seek(src Source, pos time.Duration) error {
	if pos < 0 {
		return &SeekError{Pos: pos, Err: ErrSeekOutOfRange}
	}
	s, ok := src.(Seeker)
	if !ok {
		return &SeekError{Pos: pos, Err: ErrSeekNotSupported}
	}
	return s.Seek(pos)
}

// TotalDuration reports the length of src when it is known.
func TotalDuration(src Source) (time.Duration, bool) {
	d, ok := src.(Durationer)
	if !ok {
		return 0, false
	}
	return d.TotalDuration()
}

// Position reports the playback position of src, or false when src does not track it.
func Position(src Source) (time.Duration, bool) {
	p, ok := src.(Positioner)
	if !ok {
		return 0, false
	}
	return p.Position(), true
}

// NextSample pulls a single sample from a mono source, or the next frame's
// first sample otherwise. It is meant for tests and non real-time callers.
func NextSample(src Source) (float32, error) {
	buf := make([]float32, max(src.Channels(), 1))
	for {
		n, err := src.ReadSamples(buf)
		if n > 0 {
			return buf[0], nil
		}
		if err != nil {
			return 0, err
		}
	}
}

// FramesToDuration converts a frame count at rate into a duration.
func FramesToDuration(frames int64, rate int) time.Duration {
	if rate <= 0 {
		return 0
	}
	secs := frames / int64(rate)
	rem := frames % int64(rate)
	return time.Duration(secs)*time.Second + time.Duration(rem)*time.Second/time.Duration(rate)
}

// DurationToFrames converts d into a frame count at rate, rounding down.
func DurationToFrames(d time.Duration, rate int) int64 {
	if rate <= 0 || d <= 0 {
		return 0
	}
	secs := int64(d / time.Second)
	rem := int64(d % time.Second)
	return secs*int64(rate) + rem*int64(rate)/int64(time.Second)
}
