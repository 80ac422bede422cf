// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"time"
)

// Speed scales the sample rate reported for src. Placed in front of a
// Resampler it changes how fast src is consumed; pitch moves with speed.
type Speed struct {
	src   Source
	speed atomicFloat32
}

func NewSpeed(src Source, speed float32) *Speed {
	s := &Speed{src: src}
	s.speed.Store(1)
	s.SetSpeed(speed)
	return s
}

// SetSpeed takes effect the next time a consumer reads SampleRate.
// Non-positive values are ignored.
func (s *Speed) SetSpeed(speed float32) {
	if speed <= 0 {
		return
	}
	s.speed.Store(speed)
}

func (s *Speed) Speed() float32 { return s.speed.Load() }

func (s *Speed) SampleRate() int {
	rate := s.src.SampleRate()
	speed := s.speed.Load()
	if speed == 1 {
		return rate
	}
	return max(int(float32(rate)*speed+0.5), 1)
}

func (s *Speed) Channels() int { return s.src.Channels() }
func (s *Speed) Close() error {
	err := s.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (s *Speed) ReadSamples(dst []float32) (int, error) { return s.src.ReadSamples(dst) }

// Seek positions are in the inner source's timeline.
func (s *Speed) Seek(pos time.Duration) error { return Seek(s.src, pos) }

func (s *Speed) TotalDuration() (time.Duration, bool) {
	d, ok := TotalDuration(s.src)
	if !ok {
		return 0, false
	}
	return time.Duration(float64(d) / float64(s.speed.Load())), true
}
