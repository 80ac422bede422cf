// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// SkipSource discards the beginning of src before yielding anything.
type SkipSource struct {
	src      Source
	skip     time.Duration
	samples  int // pending samples to drop; -1 when measured in time
	prepared bool
	scratch  []float32
}

// SkipDuration drops the first d of src.
func SkipDuration(src Source, d time.Duration) *SkipSource {
	return &SkipSource{src: src, skip: d, samples: -1}
}

// SkipSamples drops the first n samples of src, rounded down to whole frames.
func SkipSamples(src Source, n int) *SkipSource {
	return &SkipSource{src: src, samples: n}
}

func (s *SkipSource) SampleRate() int { return s.src.SampleRate() }
func (s *SkipSource) Channels() int   { return s.src.Channels() }
func (s *SkipSource) Close() error {
	err := s.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *SkipSource) discard() error {
	s.prepared = true

	remaining := s.skip
	left := s.samples
	if s.scratch == nil {
		s.scratch = make([]float32, 4096)
	}

	for {
		channels := max(s.src.Channels(), 1)
		var want int
		if left >= 0 {
			want = left - left%channels
		} else {
			want = int(DurationToFrames(remaining, s.src.SampleRate())) * channels
		}
		if want <= 0 {
			return nil
		}
		chunk := min(want, len(s.scratch)-len(s.scratch)%channels)

		n, err := s.src.ReadSamples(s.scratch[:chunk])
		if left >= 0 {
			left -= n
		} else {
			remaining -= FramesToDuration(int64(n/channels), s.src.SampleRate())
		}
		if err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
	}
}

func (s *SkipSource) ReadSamples(dst []float32) (int, error) {
	if !s.prepared {
		if err := s.discard(); err != nil {
			if err == io.EOF {
				return 0, io.EOF
			}
			return 0, fmt.Errorf("%w", err)
		}
	}
	return s.src.ReadSamples(dst)
}

// Seek positions are relative to the first kept sample.
func (s *SkipSource) Seek(pos time.Duration) error {
	offset := s.skip
	if s.samples >= 0 {
		channels := max(s.src.Channels(), 1)
		offset = FramesToDuration(int64(s.samples/channels), s.src.SampleRate())
	}
	if err := Seek(s.src, pos+offset); err != nil {
		return err
	}
	s.prepared = true
	return nil
}

func (s *SkipSource) TotalDuration() (time.Duration, bool) {
	d, ok := TotalDuration(s.src)
	if !ok || s.samples >= 0 {
		return 0, false
	}
	return max(d-s.skip, 0), true
}
