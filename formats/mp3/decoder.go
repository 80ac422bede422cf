// SPDX-License-Identifier: EPL-2.0

package mp3

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/utils"
)

// go-mp3 always produces interleaved stereo int16 little-endian PCM.
const (
	outChannels   = 2
	bytesPerFrame = outChannels * 2
)

// Magic reports whether header starts with an ID3v2 tag or an MPEG audio
// layer III frame header.
func Magic(header []byte) bool {
	if len(header) >= 3 && string(header[:3]) == "ID3" {
		return true
	}
	if len(header) < 4 {
		return false
	}
	if header[0] != 0xFF || header[1]&0xE0 != 0xE0 {
		return false
	}
	version := (header[1] >> 3) & 0x03
	layer := (header[1] >> 1) & 0x03
	bitrate := header[2] >> 4
	rate := (header[2] >> 2) & 0x03
	return version != 0x01 && layer == 0x01 && bitrate != 0x0F && rate != 0x03
}

// mp3Reader is an interface for gomp3.Decoder to allow testing
type mp3Reader interface {
	Read([]byte) (int, error)
	SampleRate() int
}

// byteSeeker is implemented by gomp3.Decoder. Length is -1 when the input
// was not an io.Seeker.
type byteSeeker interface {
	Seek(offset int64, whence int) (int64, error)
	Length() int64
}

type source struct {
	dec        mp3Reader
	sampleRate int
	frame      int64
	buf        []byte
	eof        bool
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return outChannels }
func (s *source) Close() error    { return nil }

func (s *source) ReadSamples(dst []float32) (int, error) {
	frames := len(dst) / outChannels
	if frames == 0 {
		return 0, nil
	}
	if s.eof {
		return 0, io.EOF
	}

	size := frames * bytesPerFrame
	if cap(s.buf) < size {
		s.buf = make([]byte, size)
	}
	s.buf = s.buf[:size]

	nb, err := io.ReadFull(s.dec, s.buf)
	nb -= nb % bytesPerFrame
	n := nb / 2
	for i := range n {
		dst[i] = utils.IntToFloat32(int(int16(binary.LittleEndian.Uint16(s.buf[2*i:]))), 16)
	}
	s.frame += int64(nb / bytesPerFrame)

	switch {
	case err == nil:
		return n, nil
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		s.eof = true
		return n, io.EOF
	default:
		s.eof = true
		return n, audio.CorruptStream("mp3", err)
	}
}

func (s *source) seeker() (byteSeeker, bool) {
	bs, ok := s.dec.(byteSeeker)
	if !ok || bs.Length() < 0 {
		return nil, false
	}
	return bs, true
}

func (s *source) Seek(pos time.Duration) error {
	bs, ok := s.seeker()
	if !ok {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekNotSupported}
	}
	if pos < 0 {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}

	total := bs.Length() / bytesPerFrame
	frame := audio.DurationToFrames(pos, s.sampleRate)
	if frame > total {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}
	// Seeking to the very end would make go-mp3 read past the last frame.
	if frame == total {
		s.frame = frame
		s.eof = true
		return nil
	}
	if _, err := bs.Seek(frame*bytesPerFrame, io.SeekStart); err != nil {
		return audio.BackendSeekError(pos, err)
	}
	s.frame = frame
	s.eof = false
	return nil
}

func (s *source) TotalDuration() (time.Duration, bool) {
	bs, ok := s.seeker()
	if !ok {
		return 0, false
	}
	return audio.FramesToDuration(bs.Length()/bytesPerFrame, s.sampleRate), true
}

func (s *source) Position() time.Duration {
	return audio.FramesToDuration(s.frame, s.sampleRate)
}

// Decoder decodes MPEG-1/2 layer III audio. Mono files are upmixed to
// stereo by go-mp3. Seeking and duration are available when the input
// implements io.Seeker; other readers are streamed.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotMP3File, err)
	}

	return &source{
		dec:        dec,
		sampleRate: dec.SampleRate(),
	}, nil
}
