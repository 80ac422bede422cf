// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"time"
)

// Periodic hands its inner source to a callback every period of audio.
// The callback always runs between two samples, and a ReadSamples call
// ends right after it so parameter changes made by the callback (e.g. a new
// rate reported by a Speed) start at a span boundary.
type Periodic[S Source] struct {
	src    S
	period time.Duration
	fn     func(S)

	left    int // samples until the next callback
	started bool
}

// PeriodicAccess calls fn(src) before the first sample and then every period.
func PeriodicAccess[S Source](src S, period time.Duration, fn func(S)) *Periodic[S] {
	return &Periodic[S]{src: src, period: period, fn: fn}
}

// Inner returns the wrapped source.
func (p *Periodic[S]) Inner() S { return p.src }

func (p *Periodic[S]) SampleRate() int { return p.src.SampleRate() }
func (p *Periodic[S]) Channels() int   { return p.src.Channels() }
func (p *Periodic[S]) Close() error {
	err := p.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (p *Periodic[S]) interval() int {
	channels := max(p.src.Channels(), 1)
	frames := max(DurationToFrames(p.period, p.src.SampleRate()), 1)
	return int(frames) * channels
}

func (p *Periodic[S]) ReadSamples(dst []float32) (int, error) {
	if !p.started {
		p.started = true
		p.fn(p.src)
		p.left = p.interval()
	}

	limit := min(len(dst), p.left)
	n, err := p.src.ReadSamples(dst[:limit])
	p.left -= n
	if p.left <= 0 {
		p.fn(p.src)
		p.left = p.interval()
	}
	return n, err
}

func (p *Periodic[S]) Seek(pos time.Duration) error { return Seek(p.src, pos) }

func (p *Periodic[S]) TotalDuration() (time.Duration, bool) {
	return TotalDuration(p.src)
}
