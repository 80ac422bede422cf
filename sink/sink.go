// SPDX-License-Identifier: EPL-2.0

package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/lockfree"
	"github.com/ik5/audpipe/mixer"
)

// Sink is a control handle over a queue of sources played one after the
// other, with pause, volume, speed and seek.
//
// Output returns the audio.Source to hand to a mixer or device. It must be
// read by a single goroutine; every other method may be called from any
// goroutine. Reading never waits: when a control call holds the queue, the
// chunk is silence.
type Sink struct {
	channels int
	rate     int
	log      *slog.Logger

	appended lockfree.Mailbox[pending]
	retired  lockfree.Mailbox[audio.Source]
	queued   atomic.Int64 // appended and not finished, current included
	frames   atomic.Int64 // frames of current played

	paused   atomic.Bool
	stopped  atomic.Bool
	detached atomic.Bool
	ended    atomic.Pointer[chan struct{}]
	kick     chan struct{} // wakes one waiter without allocating

	mu        sync.Mutex
	current   audio.Source
	tomb      *lockfree.Node[audio.Source] // retires current
	fifo      []pending
	speed     *audio.Speed
	resampler *audio.Resampler
	amp       *audio.Amplify

	mixer  *mixer.Mixer
	handle mixer.Handle
}

// pending is a queued source with the node that later retires it, so
// finishing a source never allocates on the output goroutine.
type pending struct {
	src  audio.Source
	tomb *lockfree.Node[audio.Source]
}

type Option func(*Sink)

// WithLogger sets the logger for source failures.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sink) { s.log = l }
}

// WithVolume sets the initial gain.
func WithVolume(v float32) Option {
	return func(s *Sink) { s.amp.SetGain(v) }
}

// WithSpeed sets the initial speed.
func WithSpeed(v float32) Option {
	return func(s *Sink) { s.speed.SetSpeed(v) }
}

// WithPaused creates the sink paused.
func WithPaused() Option {
	return func(s *Sink) { s.paused.Store(true) }
}

// New returns an idle sink producing channels x rate audio.
func New(channels, rate int, opts ...Option) (*Sink, error) {
	if channels <= 0 || rate <= 0 {
		return nil, audio.ErrInvalidFormat
	}

	s := &Sink{
		channels: channels,
		rate:     rate,
		log:      slog.Default(),
	}
	ch := make(chan struct{})
	s.ended.Store(&ch)
	s.kick = make(chan struct{}, 1)

	// queue -> speed -> back to the sink rate -> gain
	s.speed = audio.NewSpeed(queue{s: s}, 1)
	s.resampler = audio.NewResampler(s.speed, rate)
	s.amp = audio.NewAmplify(s.resampler, 1)

	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With("component", "sink")

	return s, nil
}

// Connect creates a sink in m's format and adds its output to m. Stop
// removes it from m again.
func Connect(m *mixer.Mixer, opts ...Option) (*Sink, error) {
	channels, rate := m.Format()
	s, err := New(channels, rate, opts...)
	if err != nil {
		return nil, err
	}

	h, err := m.Add(s.Output())
	if err != nil {
		return nil, fmt.Errorf("connecting sink: %w", err)
	}
	s.mixer, s.handle = m, h
	return s, nil
}

// Output is the sink's audio. It yields silence while paused or idle and
// ends only after Detach once the queue ran dry.
func (s *Sink) Output() audio.Source { return output{s: s} }

// notify wakes every WaitUntilEnd caller. It allocates, so the output
// path uses signal instead.
func (s *Sink) notify() {
	ch := make(chan struct{})
	old := s.ended.Swap(&ch)
	close(*old)
}

// signal wakes one WaitUntilEnd caller, which relays it to the others.
func (s *Sink) signal() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

func (s *Sink) reap() {
	s.retired.Drain(func(src audio.Source) {
		if err := src.Close(); err != nil {
			s.log.Warn("closing source", slog.Any("error", err))
		}
	})
}

// Append queues src after everything already queued. src is converted to
// the sink format and owned by the sink from now on.
func (s *Sink) Append(src audio.Source) error {
	if s.stopped.Load() {
		return ErrSinkStopped
	}
	if s.detached.Load() {
		return ErrSinkDetached
	}
	s.reap()

	conv, err := audio.Convert(src, s.channels, s.rate)
	if err != nil {
		return fmt.Errorf("queueing source: %w", err)
	}

	s.queued.Add(1)
	s.appended.Push(pending{src: conv, tomb: lockfree.NewNode(conv)})

	// Lost a race with Stop: nothing will ever play it.
	if s.stopped.Load() {
		s.mu.Lock()
		s.dropAll()
		s.mu.Unlock()
		return ErrSinkStopped
	}
	return nil
}

// dropAll closes every queued source. s.mu must be held.
func (s *Sink) dropAll() {
	queue{s: s}.promote()
	if s.current != nil {
		_ = s.current.Close()
		s.current, s.tomb = nil, nil
	}
	for i, p := range s.fifo {
		_ = p.src.Close()
		s.fifo[i] = pending{}
	}
	s.fifo = s.fifo[:0]
	s.queued.Store(0)
	s.frames.Store(0)
	s.resampler.Reset()
}

func (s *Sink) Play()          { s.paused.Store(false) }
func (s *Sink) Pause()         { s.paused.Store(true) }
func (s *Sink) IsPaused() bool { return s.paused.Load() }

// Stop drops the queue for good. The sink produces silence from the next
// chunk on and refuses new sources.
func (s *Sink) Stop() {
	if s.stopped.Swap(true) {
		return
	}

	s.mu.Lock()
	s.dropAll()
	s.mu.Unlock()
	s.reap()
	s.notify()

	if s.mixer != nil {
		s.mixer.Remove(s.handle)
	}
	s.log.Debug("sink stopped")
}

func (s *Sink) IsStopped() bool { return s.stopped.Load() }

// Clear drops every queued source but keeps the sink usable.
func (s *Sink) Clear() {
	s.mu.Lock()
	s.dropAll()
	s.mu.Unlock()
	s.reap()
	s.notify()
}

// SkipOne drops the current source; the next one starts right away.
func (s *Sink) SkipOne() {
	s.mu.Lock()
	q := queue{s: s}
	q.promote()
	if s.current != nil {
		q.finish()
		s.resampler.Reset()
	}
	s.mu.Unlock()
	s.reap()
	s.notify()
}

// Detach lets the sink play out what is queued on its own. Once the queue is
// empty its output ends, which makes a mixer drop it. Append fails from now
// on; the remaining control calls keep working.
func (s *Sink) Detach() { s.detached.Store(true) }

// SetVolume changes the gain from the next chunk on.
func (s *Sink) SetVolume(v float32) { s.amp.SetGain(v) }
func (s *Sink) Volume() float32     { return s.amp.Gain() }

// SetSpeed changes playback speed (and pitch) from the next refill on.
// Non-positive values are ignored.
func (s *Sink) SetSpeed(v float32) { s.speed.SetSpeed(v) }
func (s *Sink) Speed() float32     { return s.speed.Speed() }

// TrySeek moves the current source to pos. Failures are *audio.SeekError.
func (s *Sink) TrySeek(pos time.Duration) error {
	if s.stopped.Load() {
		return ErrSinkStopped
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return audio.Seek(s.resampler, pos)
}

// Position is how far into the current source playback got. It is exact
// while the source matches the sink format at speed 1; otherwise it runs
// ahead of what was heard by at most one resampler refill.
func (s *Sink) Position() time.Duration {
	return audio.FramesToDuration(s.frames.Load(), s.rate)
}

// Len counts queued sources, including the one playing.
func (s *Sink) Len() int { return int(s.queued.Load()) }

func (s *Sink) Empty() bool { return s.Len() == 0 }

// WaitUntilEnd blocks until the queue is empty, the sink stops or ctx is
// done. It must not be called from the goroutine reading Output.
func (s *Sink) WaitUntilEnd(ctx context.Context) error {
	for {
		ended := *s.ended.Load()
		if s.queued.Load() <= 0 || s.stopped.Load() {
			s.reap()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ended:
		case <-s.kick:
			s.notify()
		}
	}
}

// SleepUntilEnd is WaitUntilEnd without a deadline.
func (s *Sink) SleepUntilEnd() { _ = s.WaitUntilEnd(context.Background()) }

// output gates the processing chain with the atomic control flags.
type output struct {
	s *Sink
}

func (o output) SampleRate() int { return o.s.rate }
func (o output) Channels() int   { return o.s.channels }
func (o output) Close() error {
	o.s.Stop()
	return nil
}

func (o output) ReadSamples(dst []float32) (int, error) {
	s := o.s
	want := len(dst) - len(dst)%s.channels

	if s.stopped.Load() {
		if s.detached.Load() {
			return 0, io.EOF
		}
		clear(dst[:want])
		return want, nil
	}
	if s.paused.Load() || !s.mu.TryLock() {
		clear(dst[:want])
		return want, nil
	}
	defer s.mu.Unlock()

	n, err := s.amp.ReadSamples(dst[:want])
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.stopped.Store(true)
			s.signal()
		}
		return n, err
	}
	clear(dst[n:want])
	return want, nil
}
