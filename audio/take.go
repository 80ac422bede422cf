// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// TakeDurationSource truncates src after a fixed amount of time.
type TakeDurationSource struct {
	src       Source
	limit     time.Duration
	rate      int
	remaining int64 // frames at rate
}

// TakeDuration yields at most d of src.
func TakeDuration(src Source, d time.Duration) *TakeDurationSource {
	rate := src.SampleRate()
	return &TakeDurationSource{
		src:       src,
		limit:     d,
		rate:      rate,
		remaining: DurationToFrames(d, rate),
	}
}

func (t *TakeDurationSource) SampleRate() int { return t.src.SampleRate() }
func (t *TakeDurationSource) Channels() int   { return t.src.Channels() }
func (t *TakeDurationSource) Close() error {
	err := t.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (t *TakeDurationSource) ReadSamples(dst []float32) (int, error) {
	// Carry the remaining time over a span change.
	if rate := t.src.SampleRate(); rate != t.rate {
		t.remaining = DurationToFrames(FramesToDuration(t.remaining, t.rate), rate)
		t.rate = rate
	}
	if t.remaining <= 0 {
		return 0, io.EOF
	}

	channels := max(t.src.Channels(), 1)
	limit := min(int64(len(dst)/channels), t.remaining) * int64(channels)

	n, err := t.src.ReadSamples(dst[:limit])
	t.remaining -= int64(n / channels)
	if t.remaining <= 0 && err == nil {
		err = io.EOF
	}
	return n, err
}

func (t *TakeDurationSource) Seek(pos time.Duration) error {
	if err := Seek(t.src, pos); err != nil {
		return err
	}
	t.rate = t.src.SampleRate()
	t.remaining = DurationToFrames(t.limit-pos, t.rate)
	return nil
}

func (t *TakeDurationSource) TotalDuration() (time.Duration, bool) {
	if d, ok := TotalDuration(t.src); ok && d < t.limit {
		return d, true
	}
	return t.limit, true
}

// TakeSamplesSource truncates src after a fixed number of samples.
type TakeSamplesSource struct {
	src       Source
	remaining int
}

// TakeSamples yields at most n samples of src, rounded down to whole frames.
func TakeSamples(src Source, n int) *TakeSamplesSource {
	return &TakeSamplesSource{src: src, remaining: n}
}

func (t *TakeSamplesSource) SampleRate() int { return t.src.SampleRate() }
func (t *TakeSamplesSource) Channels() int   { return t.src.Channels() }
func (t *TakeSamplesSource) Close() error {
	err := t.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (t *TakeSamplesSource) ReadSamples(dst []float32) (int, error) {
	channels := max(t.src.Channels(), 1)
	limit := min(len(dst), t.remaining)
	limit -= limit % channels
	if limit <= 0 {
		return 0, io.EOF
	}

	n, err := t.src.ReadSamples(dst[:limit])
	t.remaining -= n
	if t.remaining < channels && err == nil {
		err = io.EOF
	}
	return n, err
}
