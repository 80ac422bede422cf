// SPDX-License-Identifier: EPL-2.0

package aiff

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-audio/aiff"
	goaudio "github.com/go-audio/audio"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/utils"
)

// Magic reports whether header starts an AIFF or AIFF-C container.
func Magic(header []byte) bool {
	if len(header) < 12 || !bytes.Equal(header[0:4], []byte("FORM")) {
		return false
	}
	form := header[8:12]
	return bytes.Equal(form, []byte("AIFF")) || bytes.Equal(form, []byte("AIFC"))
}

// aiffReader is an interface for aiff.Decoder to allow testing
type aiffReader interface {
	Format() *goaudio.Format
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

// source wraps go-audio aiff.Decoder to implement audio.Source
type source struct {
	dec        aiffReader
	sampleRate int
	channels   int
	bitDepth   int
	intBuf     *goaudio.IntBuffer

	// reopen returns a fresh decoder positioned at the first frame; nil
	// disables seeking.
	reopen      func() (aiffReader, error)
	totalFrames int64 // -1 when unknown
	frame       int64
	eof         bool
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

	// Resize buffer if needed
	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{
			Data:   make([]int, want),
			Format: s.dec.Format(),
		}
	} else {
		s.intBuf.Data = s.intBuf.Data[:want]
	}

	n, err := s.dec.PCMBuffer(s.intBuf)
	n -= n % s.channels
	for i := range n {
		dst[i] = utils.IntToFloat32(s.intBuf.Data[i], s.bitDepth)
	}
	s.frame += int64(n / s.channels)

	switch {
	case err == io.EOF || (err == nil && n == 0):
		s.eof = true
		return n, io.EOF
	case err != nil:
		return n, audio.CorruptStream("aiff", err)
	case s.totalFrames >= 0 && s.frame >= s.totalFrames:
		s.eof = true
		return n, io.EOF
	}
	return n, nil
}

// Seek re-opens the stream and decodes forward to pos; AIFF data has no
// index to jump with.
func (s *source) Seek(pos time.Duration) error {
	if s.reopen == nil {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekNotSupported}
	}
	if pos < 0 {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}
	target := audio.DurationToFrames(pos, s.sampleRate)
	if s.totalFrames >= 0 && target > s.totalFrames {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}

	dec, err := s.reopen()
	if err != nil {
		return audio.BackendSeekError(pos, err)
	}
	s.dec = dec
	s.frame = 0
	s.eof = false

	scratch := make([]float32, 4096-4096%s.channels)
	for s.frame < target {
		left := int((target - s.frame) * int64(s.channels))
		_, err := s.ReadSamples(scratch[:min(left, len(scratch))])
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return audio.BackendSeekError(pos, err)
		}
	}
	return nil
}

func (s *source) TotalDuration() (time.Duration, bool) {
	if s.totalFrames < 0 {
		return 0, false
	}
	return audio.FramesToDuration(s.totalFrames, s.sampleRate), true
}

func (s *source) Position() time.Duration {
	return audio.FramesToDuration(s.frame, s.sampleRate)
}

// Decoder decodes uncompressed AIFF and AIFF-C with 8, 16, 24 or 32-bit
// big-endian samples.
type Decoder struct{}

func open(rs io.ReadSeeker) (*aiff.Decoder, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w", err)
	}

	dec := aiff.NewDecoder(rs)
	if !dec.IsValidFile() {
		return nil, ErrNotAiffFile
	}
	dec.ReadInfo()
	return dec, nil
}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading aiff data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec, err := open(rs)
	if err != nil {
		return nil, err
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}

	format := dec.Format()
	if format == nil || format.NumChannels <= 0 || format.SampleRate <= 0 {
		return nil, ErrUnsupportedAiffLayout
	}

	return &source{
		dec:         dec,
		sampleRate:  format.SampleRate,
		channels:    format.NumChannels,
		bitDepth:    int(dec.BitDepth),
		totalFrames: int64(dec.NumSampleFrames),
		reopen: func() (aiffReader, error) {
			return open(rs)
		},
	}, nil
}
