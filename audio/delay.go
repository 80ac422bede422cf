// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"time"
)

// DelaySource plays silence for a fixed time before src.
type DelaySource struct {
	src      Source
	delay    time.Duration
	pending  int64 // silent frames still to emit
	prepared bool
}

func Delay(src Source, d time.Duration) *DelaySource {
	return &DelaySource{src: src, delay: d}
}

func (d *DelaySource) SampleRate() int { return d.src.SampleRate() }
func (d *DelaySource) Channels() int   { return d.src.Channels() }
func (d *DelaySource) Close() error {
	err := d.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (d *DelaySource) ReadSamples(dst []float32) (int, error) {
	if !d.prepared {
		d.pending = DurationToFrames(d.delay, d.src.SampleRate())
		d.prepared = true
	}
	if d.pending <= 0 {
		return d.src.ReadSamples(dst)
	}

	channels := max(d.src.Channels(), 1)
	frames := min(int64(len(dst)/channels), d.pending)
	n := int(frames) * channels
	clear(dst[:n])
	d.pending -= frames
	return n, nil
}

func (d *DelaySource) Seek(pos time.Duration) error {
	if pos < d.delay {
		if err := Seek(d.src, 0); err != nil {
			return err
		}
		d.pending = DurationToFrames(d.delay-pos, d.src.SampleRate())
		d.prepared = true
		return nil
	}
	if err := Seek(d.src, pos-d.delay); err != nil {
		return err
	}
	d.pending = 0
	d.prepared = true
	return nil
}

func (d *DelaySource) TotalDuration() (time.Duration, bool) {
	inner, ok := TotalDuration(d.src)
	if !ok {
		return 0, false
	}
	return inner + d.delay, true
}
