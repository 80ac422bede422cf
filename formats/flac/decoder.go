// SPDX-License-Identifier: EPL-2.0

package flac

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/utils"
	"github.com/mewkiz/flac"
	"github.com/mewkiz/flac/frame"
)

// Magic reports whether header starts with the FLAC stream marker.
func Magic(header []byte) bool {
	return bytes.HasPrefix(header, []byte("fLaC"))
}

// frameReader is the part of flac.Stream the source needs, so tests can
// feed frames without a bitstream.
type frameReader interface {
	ParseNext() (*frame.Frame, error)
	Seek(sampleNum uint64) (uint64, error)
}

// block is one decoded frame, deinterleaved.
type block struct {
	rate     int
	channels int
	bits     int
	samples  [][]int32 // per channel
}

func toBlock(f *frame.Frame, fallbackBits int) block {
	b := block{
		rate:     int(f.SampleRate),
		channels: len(f.Subframes),
		bits:     int(f.BitsPerSample),
		samples:  make([][]int32, len(f.Subframes)),
	}
	if b.bits == 0 {
		b.bits = fallbackBits
	}
	for i, sub := range f.Subframes {
		b.samples[i] = sub.Samples[:min(len(sub.Samples), int(f.BlockSize))]
	}
	return b
}

type source struct {
	next     func() (block, error)
	seekable bool
	seek     func(sample uint64) (uint64, error)

	cur    block
	offset int // frames of cur already read
	frame  int64

	info    block // STREAMINFO format, used before the first frame
	total   int64
	pending error // deferred decode error from lookahead
}

func (s *source) format() block {
	if s.offset < s.cur.len() {
		return s.cur
	}
	return s.info
}

func (b block) len() int {
	if len(b.samples) == 0 {
		return 0
	}
	return len(b.samples[0])
}

func (s *source) SampleRate() int { return s.format().rate }
func (s *source) Channels() int   { return s.format().channels }
func (s *source) Close() error    { return nil }

// advance decodes the next frame so the format getters describe it.
func (s *source) advance() {
	for s.pending == nil && s.offset >= s.cur.len() {
		b, err := s.next()
		if err != nil {
			s.pending = err
			return
		}
		s.cur, s.offset = b, 0
	}
}

func (s *source) ReadSamples(dst []float32) (int, error) {
	s.advance()
	if s.offset >= s.cur.len() {
		if errors.Is(s.pending, io.EOF) {
			return 0, io.EOF
		}
		return 0, audio.CorruptStream("flac", s.pending)
	}

	ch := s.cur.channels
	frames := min(len(dst)/ch, s.cur.len()-s.offset)
	for i := range frames {
		for c := range ch {
			dst[i*ch+c] = utils.IntToFloat32(int(s.cur.samples[c][s.offset+i]), s.cur.bits)
		}
	}
	s.offset += frames
	s.frame += int64(frames)

	// Look ahead so a following format change is visible before the next call.
	if s.offset >= s.cur.len() {
		s.advance()
		if s.offset >= s.cur.len() && errors.Is(s.pending, io.EOF) {
			return frames * ch, io.EOF
		}
	}
	return frames * ch, nil
}

func (s *source) Seek(pos time.Duration) error {
	if !s.seekable {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekNotSupported}
	}
	if pos < 0 {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}

	target := audio.DurationToFrames(pos, s.info.rate)
	if s.total > 0 && target > s.total {
		return &audio.SeekError{Pos: pos, Err: audio.ErrSeekOutOfRange}
	}
	if s.total > 0 && target == s.total {
		s.cur, s.offset = block{}, 0
		s.pending = io.EOF
		s.frame = s.total
		return nil
	}

	start, err := s.seek(uint64(target))
	if err != nil {
		return audio.BackendSeekError(pos, err)
	}
	s.cur, s.offset, s.pending = block{}, 0, nil
	s.advance()
	if s.pending != nil && !errors.Is(s.pending, io.EOF) {
		return audio.BackendSeekError(pos, s.pending)
	}
	// Seek lands on the frame containing target.
	s.offset = min(int(target-int64(start)), s.cur.len())
	s.frame = target
	return nil
}

func (s *source) TotalDuration() (time.Duration, bool) {
	if s.total <= 0 {
		return 0, false
	}
	return audio.FramesToDuration(s.total, s.info.rate), true
}

func (s *source) Position() time.Duration {
	return audio.FramesToDuration(s.frame, s.info.rate)
}

func newSource(r frameReader, info block, total int64, seekable bool) *source {
	s := &source{
		next: func() (block, error) {
			f, err := r.ParseNext()
			if err != nil {
				return block{}, err
			}
			return toBlock(f, info.bits), nil
		},
		seek:     r.Seek,
		seekable: seekable,
		info:     info,
		total:    total,
	}
	s.advance()
	return s
}

// Decoder decodes native FLAC streams.
type Decoder struct{}

func (Decoder) Decode(r io.Reader) (audio.Source, error) {
	var (
		stream *flac.Stream
		err    error
	)
	rs, seekable := r.(io.ReadSeeker)
	if seekable {
		stream, err = flac.NewSeek(rs)
	} else {
		stream, err = flac.New(r)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotFlacFile, err)
	}

	info := stream.Info
	if info == nil || info.NChannels == 0 || info.SampleRate == 0 {
		return nil, ErrNotFlacFile
	}
	if info.BitsPerSample == 0 || info.BitsPerSample > 32 {
		return nil, ErrUnsupportedBitDepth
	}

	s := newSource(stream, block{
		rate:     int(info.SampleRate),
		channels: int(info.NChannels),
		bits:     int(info.BitsPerSample),
	}, int64(info.NSamples), seekable)

	if s.pending != nil && !errors.Is(s.pending, io.EOF) {
		return nil, audio.CorruptStream("flac", s.pending)
	}
	return s, nil
}
