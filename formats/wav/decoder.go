// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"time"

	goaudio "github.com/go-audio/audio"
	gowav "github.com/go-audio/wav"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/utils"
)

const (
	formatPCM        = 1
	formatIEEEFloat  = 3
	formatExtensible = 0xFFFE
)

// Magic reports whether header starts a RIFF/WAVE container.
func Magic(header []byte) bool {
	return len(header) >= 12 &&
		bytes.Equal(header[0:4], []byte("RIFF")) &&
		bytes.Equal(header[8:12], []byte("WAVE"))
}

// pcmReader is the part of gowav.Decoder used while streaming, so tests can
// swap it out.
type pcmReader interface {
	PCMBuffer(buf *goaudio.IntBuffer) (int, error)
}

type source struct {
	dec        pcmReader
	sampleRate int
	channels   int
	bitDepth   int
	float      bool

	// seekTo repositions dec at frame; nil when the input cannot seek.
	seekTo      func(frame int64) error
	totalFrames int64
	frame       int64

	intBuf *goaudio.IntBuffer
}

func (s *source) SampleRate() int { return s.sampleRate }
func (s *source) Channels() int   { return s.channels }
func (s *source) Close() error    { return nil }

func (s *source) sample(v int) float32 {
	switch {
	case s.float:
		return math.Float32frombits(uint32(int32(v)))
	case s.bitDepth == 8:
		// 8-bit WAV is unsigned
		return utils.Uint8ToFloat32(uint8(v))
	default:
		return utils.IntToFloat32(v, s.bitDepth)
	}
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%s.channels
	if want == 0 {
		return 0, nil
	}
	if s.totalFrames >= 0 {
		left := (s.totalFrames - s.frame) * int64(s.channels)
		if left <= 0 {
			return 0, io.EOF
		}
		want = int(min(int64(want), left))
	}

	if s.intBuf == nil || cap(s.intBuf.Data) < want {
		s.intBuf = &goaudio.IntBuffer{Data: make([]int, want)}
	}
	s.intBuf.Data = s.intBuf.Data[:want]

	n, err := s.dec.PCMBuffer(s.intBuf)
	n -= n % s.channels
	for i := range n {
		dst[i] = s.sample(s.intBuf.Data[i])
	}
	s.frame += int64(n / s.channels)

	if err != nil {
		return n, audio.CorruptStream("wav", err)
	}
	if n == 0 || (s.totalFrames >= 0 && s.frame >= s.totalFrames) {
		return n, io.EOF
	}
	return n, nil
}

func (s *source) Seek(pos time.Duration) error {
	if s.seekTo == nil {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekNotSupported}
	}
	if pos < 0 {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}

	frame := audio.DurationToFrames(pos, s.sampleRate)
	if s.totalFrames >= 0 && frame > s.totalFrames {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}
	if err := s.seekTo(frame); err != nil {
		return audio.BackendSeekError(pos, err)
	}
	s.frame = frame
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

// Decoder decodes RIFF/WAVE PCM (8, 16, 24 and 32 bit) and 32-bit IEEE
// float audio.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	// go-audio requires io.ReadSeeker
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading wav data: %w", err)
		}
		rs = bytes.NewReader(data)
	}

	dec := gowav.NewDecoder(rs)
	dec.ReadInfo()
	if err := dec.Err(); err != nil || dec.NumChans < 1 || dec.SampleRate == 0 {
		return nil, ErrNotWavFile
	}

	float := false
	switch dec.WavAudioFormat {
	case formatPCM, formatExtensible:
	case formatIEEEFloat:
		if dec.BitDepth != 32 {
			return nil, ErrUnsupportedBitDepth
		}
		float = true
	default:
		return nil, ErrUnsupportedWavLayout
	}

	switch dec.BitDepth {
	case 8, 16, 24, 32:
	default:
		return nil, ErrUnsupportedBitDepth
	}

	if err := dec.FwdToPCM(); err != nil || dec.PCMChunk == nil {
		return nil, ErrUnsupportedWavChunks
	}

	channels := int(dec.NumChans)
	blockAlign := int64(channels) * int64(dec.BitDepth/8)

	s := &source{
		dec:         dec,
		sampleRate:  int(dec.SampleRate),
		channels:    channels,
		bitDepth:    int(dec.BitDepth),
		float:       float,
		totalFrames: int64(dec.PCMSize) / blockAlign,
	}

	// Offset of the first PCM byte, used to jump straight to a frame.
	dataStart, err := rs.Seek(0, io.SeekCurrent)
	if err == nil {
		s.seekTo = func(frame int64) error {
			offset := frame * blockAlign
			if _, err := rs.Seek(dataStart+offset, io.SeekStart); err != nil {
				return err
			}
			dec.PCMChunk.R = io.LimitReader(rs, int64(dec.PCMSize)-offset)
			return nil
		}
	}

	return s, nil
}
