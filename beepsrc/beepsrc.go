// SPDX-License-Identifier: EPL-2.0

// Package beepsrc adapts between audio.Source and github.com/gopxl/beep/v2
// streamers, so existing beep pipelines can feed a mixer and audpipe
// sources can play through beep.
package beepsrc

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/ik5/audpipe/audio"
)

const chunkFrames = 512

// Source reads a beep.Streamer as an audio.Source. beep streams stereo
// frames; a format with one channel yields the left channel only.
type Source struct {
	s        beep.Streamer
	format   beep.Format
	channels int
	buf      [][2]float64
	frame    int64
	done     bool
}

var _ audio.Source = (*Source)(nil)

// FromStreamer wraps s, whose samples run at f.SampleRate.
func FromStreamer(s beep.Streamer, f beep.Format) *Source {
	channels := 2
	if f.NumChannels == 1 {
		channels = 1
	}
	return &Source{
		s:        s,
		format:   f,
		channels: channels,
		buf:      make([][2]float64, chunkFrames),
	}
}

func (b *Source) SampleRate() int { return int(b.format.SampleRate) }
func (b *Source) Channels() int   { return b.channels }

// Close closes the streamer when it is a beep.StreamSeekCloser.
func (b *Source) Close() error {
	if c, ok := b.s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (b *Source) ReadSamples(dst []float32) (int, error) {
	if b.done {
		return 0, b.endErr()
	}

	frames := len(dst) / b.channels
	written := 0
	for written < frames {
		want := min(frames-written, len(b.buf))
		n, ok := b.s.Stream(b.buf[:want])
		for i := range n {
			out := dst[(written+i)*b.channels:]
			out[0] = float32(b.buf[i][0])
			if b.channels == 2 {
				out[1] = float32(b.buf[i][1])
			}
		}
		written += n
		b.frame += int64(n)

		if !ok {
			b.done = true
			return written * b.channels, b.endErr()
		}
		if n < want {
			break
		}
	}
	return written * b.channels, nil
}

func (b *Source) endErr() error {
	if err := b.s.Err(); err != nil {
		return fmt.Errorf("beep streamer: %w", err)
	}
	return io.EOF
}

// Seek needs a beep.StreamSeeker underneath.
func (b *Source) Seek(pos time.Duration) error {
	ss, ok := b.s.(beep.StreamSeeker)
	if !ok {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekNotSupported}
	}
	if pos < 0 {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}

	p := b.format.SampleRate.N(pos)
	if p > ss.Len() {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}
	if err := ss.Seek(p); err != nil {
		return audio.BackendSeekError(pos, err)
	}
	b.frame = int64(p)
	b.done = false
	return nil
}

func (b *Source) TotalDuration() (time.Duration, bool) {
	ss, ok := b.s.(beep.StreamSeeker)
	if !ok {
		return 0, false
	}
	return b.format.SampleRate.D(ss.Len()), true
}

func (b *Source) Position() time.Duration {
	return audio.FramesToDuration(b.frame, b.SampleRate())
}

// Streamer plays an audio.Source through beep. It implements
// beep.StreamSeekCloser; Len and Seek work when the source reports a
// duration and seeks.
type Streamer struct {
	src    audio.Source
	rate   beep.SampleRate
	buf    []float32
	frame  int
	err    error
	ended  bool
	closed bool
}

var _ beep.StreamSeekCloser = (*Streamer)(nil)

// ToStreamer converts src to stereo at its current rate and returns it as a
// beep streamer together with its format.
func ToStreamer(src audio.Source) (*Streamer, beep.Format, error) {
	rate := src.SampleRate()
	conv, err := audio.Convert(src, 2, rate)
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("adapting source: %w", err)
	}

	s := &Streamer{
		src:  conv,
		rate: beep.SampleRate(rate),
		buf:  make([]float32, chunkFrames*2),
	}
	format := beep.Format{SampleRate: s.rate, NumChannels: 2, Precision: 4}
	return s, format, nil
}

func (s *Streamer) Stream(samples [][2]float64) (int, bool) {
	if s.err != nil || s.ended || s.closed {
		return 0, false
	}

	n := 0
	for n < len(samples) {
		want := min(len(samples)-n, chunkFrames)
		got, err := s.src.ReadSamples(s.buf[:want*2])
		for i := range got / 2 {
			samples[n+i] = [2]float64{float64(s.buf[2*i]), float64(s.buf[2*i+1])}
		}
		n += got / 2
		s.frame += got / 2

		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.err = err
			}
			s.ended = true
			return n, n > 0
		}
		if got == 0 {
			break
		}
	}
	return n, true
}

func (s *Streamer) Err() error { return s.err }

// Len is the source length in frames, or 0 when it is unknown.
func (s *Streamer) Len() int {
	d, ok := audio.TotalDuration(s.src)
	if !ok {
		return 0
	}
	return s.rate.N(d)
}

func (s *Streamer) Position() int { return s.frame }

func (s *Streamer) Seek(p int) error {
	if err := audio.Seek(s.src, s.rate.D(p)); err != nil {
		return err
	}
	s.frame = p
	s.ended = false
	return nil
}

func (s *Streamer) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	return s.src.Close()
}
