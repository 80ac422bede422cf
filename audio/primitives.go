// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"io"
	"time"
)

// EmptySource is exhausted from the start.
type EmptySource struct{}

func Empty() EmptySource { return EmptySource{} }

func (EmptySource) SampleRate() int                    { return 48000 }
func (EmptySource) Channels() int                      { return 1 }
func (EmptySource) Close() error                       { return nil }
func (EmptySource) ReadSamples([]float32) (int, error) { return 0, io.EOF }
func (EmptySource) Seek(time.Duration) error           { return nil }

func (EmptySource) TotalDuration() (time.Duration, bool) { return 0, true }

// ZeroSource yields silence forever.
type ZeroSource struct {
	channels int
	rate     int
}

func Zero(channels, rate int) ZeroSource {
	return ZeroSource{channels: max(channels, 1), rate: rate}
}

func (z ZeroSource) SampleRate() int          { return z.rate }
func (z ZeroSource) Channels() int            { return z.channels }
func (z ZeroSource) Close() error             { return nil }
func (z ZeroSource) Seek(time.Duration) error { return nil }

func (z ZeroSource) ReadSamples(dst []float32) (int, error) {
	n := len(dst) - len(dst)%z.channels
	clear(dst[:n])
	return n, nil
}

// Silence yields d of silence.
func Silence(channels, rate int, d time.Duration) *TakeDurationSource {
	return TakeDuration(Zero(channels, rate), d)
}

// BufferSource plays interleaved samples held in memory.
type BufferSource struct {
	channels int
	rate     int
	data     []float32
	offset   int
}

// FromSamples wraps interleaved data. The slice is not copied.
func FromSamples(channels, rate int, data []float32) *BufferSource {
	channels = max(channels, 1)
	return &BufferSource{
		channels: channels,
		rate:     rate,
		data:     data[:len(data)-len(data)%channels],
	}
}

func (b *BufferSource) SampleRate() int { return b.rate }
func (b *BufferSource) Channels() int   { return b.channels }
func (b *BufferSource) Close() error    { return nil }

func (b *BufferSource) ReadSamples(dst []float32) (int, error) {
	if b.offset >= len(b.data) {
		return 0, io.EOF
	}
	n := copy(dst[:len(dst)-len(dst)%b.channels], b.data[b.offset:])
	b.offset += n
	if b.offset >= len(b.data) {
		return n, io.EOF
	}
	return n, nil
}

func (b *BufferSource) Seek(pos time.Duration) error {
	if pos < 0 {
		return &SeekError{Pos: pos, Err: ErrSeekOutOfRange}
	}
	offset := DurationToFrames(pos, b.rate) * int64(b.channels)
	if offset > int64(len(b.data)) {
		return &SeekError{Pos: pos, Err: ErrSeekOutOfRange}
	}
	b.offset = int(offset)
	return nil
}

func (b *BufferSource) TotalDuration() (time.Duration, bool) {
	return FramesToDuration(int64(len(b.data)/b.channels), b.rate), true
}

func (b *BufferSource) Position() time.Duration {
	return FramesToDuration(int64(b.offset/b.channels), b.rate)
}
