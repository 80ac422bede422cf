// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/ik5/audpipe/audio"
)

// queue plays the sink's sources back to back. All sources were converted to
// the sink format on Append, so it never changes span. Every method runs with
// Sink.mu held.
type queue struct {
	s *Sink
}

func (q queue) SampleRate() int { return q.s.rate }
func (q queue) Channels() int   { return q.s.channels }
func (q queue) Close() error    { return nil }

// promote makes the next queued source current when none is.
func (q queue) promote() {
	s := q.s
	s.appended.Drain(func(p pending) { s.fifo = append(s.fifo, p) })
	if s.current != nil || len(s.fifo) == 0 {
		return
	}
	s.current, s.tomb = s.fifo[0].src, s.fifo[0].tomb

	// Shift rather than reslice so the backing array keeps its capacity.
	last := len(s.fifo) - 1
	copy(s.fifo, s.fifo[1:])
	s.fifo[last] = pending{}
	s.fifo = s.fifo[:last]
	s.frames.Store(0)
}

// finish retires the current source; it is closed later on a control goroutine.
func (q queue) finish() {
	s := q.s
	s.retired.PushNode(s.tomb)
	s.current, s.tomb = nil, nil
	s.queued.Add(-1)
	s.signal()
}

func (q queue) ReadSamples(dst []float32) (int, error) {
	s := q.s
	want := len(dst) - len(dst)%s.channels

	filled := 0
	for filled < want {
		q.promote()
		if s.current == nil {
			break
		}

		n, err := s.current.ReadSamples(dst[filled:want])
		filled += n
		s.frames.Add(int64(n / s.channels))

		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Warn("source failed, skipping to next", slog.Any("error", err))
			}
			q.finish()
			continue
		}
		if n == 0 {
			break
		}
	}

	if filled < want {
		if s.detached.Load() && s.current == nil && len(s.fifo) == 0 && s.appended.Len() == 0 {
			return filled, io.EOF
		}
		clear(dst[filled:want])
	}
	return want, nil
}

func (q queue) Seek(pos time.Duration) error {
	s := q.s
	q.promote()
	if s.current == nil {
		return &audio.SeekError{Pos: pos, Err: fmt.Errorf("%w: %w", audio.ErrSeekNotSupported, ErrQueueEmpty)}
	}
	if err := audio.Seek(s.current, pos); err != nil {
		return err
	}
	s.frames.Store(audio.DurationToFrames(pos, s.rate))
	return nil
}
