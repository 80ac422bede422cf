// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ik5/audpipe/audio"
	"github.com/jfreymuth/oggvorbis"
)

// Magic reports whether header starts an Ogg page.
func Magic(header []byte) bool {
	return bytes.HasPrefix(header, []byte("OggS"))
}

// oggReader is an interface for oggvorbis.Reader to allow testing
type oggReader interface {
	SampleRate() int
	Channels() int
	// Read returns the number of values (frames * channels) decoded.
	Read([]float32) (int, error)
	Position() int64
	// Length is 0 when unknown.
	Length() int64
	SetPosition(int64) error
}

type source struct {
	dec        oggReader
	sampleRate int
	channels   int
	seekable   bool
	eof        bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}
	if s.eof {
		return 0, io.EOF
	}

	n, err := s.dec.Read(dst[:want])
	n -= n % s.channels

	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF):
		s.eof = true
		return n, io.EOF
	default:
		s.eof = true
		return n, audio.CorruptStream("vorbis", err)
	}
}

func (s *source) Seek(pos time.Duration) error {
	if !s.seekable {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekNotSupported}
	}
	if pos < 0 {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}

	frame := audio.DurationToFrames(pos, s.sampleRate)
	if frame > s.dec.Length() {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}
	if err := s.dec.SetPosition(frame); err != nil {
		return audio.BackendSeekError(pos, err)
	}
	s.eof = false
	return nil
}

func (s *source) TotalDuration() (time.Duration, bool) {
	length := s.dec.Length()
	if length <= 0 {
		return 0, false
	}
	return audio.FramesToDuration(length, s.sampleRate), true
}

func (s *source) Position() time.Duration {
	return audio.FramesToDuration(s.dec.Position(), s.sampleRate)
}

// Decoder decodes Ogg Vorbis streams.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotVorbisFile, err)
	}
	if dec.Channels() < 1 || dec.SampleRate() < 1 {
		return nil, ErrNotVorbisFile
	}

	// oggvorbis only knows the length when it could scan to the last page.
	_, isSeeker := r.(io.Seeker)

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
		channels:   dec.Channels(),
		seekable:   isSeeker && dec.Length() > 0,
	}, nil
}
