// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/lockfree"
)

// defaultBufferFrames sizes the per-input scratch buffer up front so the
// pulling goroutine does not allocate for typical device callbacks.
const defaultBufferFrames = 4096

// Handle identifies an input added to a Mixer.
type Handle struct {
	id uuid.UUID
}

func (h Handle) String() string { return h.id.String() }

// IsZero reports whether h was never returned by Add.
func (h Handle) IsZero() bool { return h.id == uuid.Nil }

type input struct {
	id  uuid.UUID
	src audio.Source

	stopped  atomic.Bool // Remove was called
	finished atomic.Bool // dropped by the pulling side
	tomb     *lockfree.Node[*input]
}

// Mixer sums any number of inputs into one stream with a fixed channel
// count and sample rate. The Mixer itself is an audio.Source that never
// ends: with no inputs it produces silence.
//
// Add and Remove may be called from any goroutine while another goroutine
// calls ReadSamples. The reading side never waits on a lock; registrations
// reach it through a mailbox drained at the start of every ReadSamples.
type Mixer struct {
	channels int
	rate     int
	log      *slog.Logger

	added   lockfree.Mailbox[*input]
	retired lockfree.Mailbox[*input]
	inputs  sync.Map // uuid.UUID -> *input, control side index
	count   atomic.Int64
	closed  atomic.Bool

	// owned by the reading goroutine
	active  []*input
	scratch []float32
}

type Option func(*Mixer)

// WithLogger sets the logger used to report dropped inputs.
func WithLogger(l *slog.Logger) Option {
	return func(m *Mixer) { m.log = l }
}

// WithBufferFrames pre-sizes the scratch buffer to frames.
func WithBufferFrames(frames int) Option {
	return func(m *Mixer) {
		if frames > 0 {
			m.scratch = make([]float32, frames*m.channels)
		}
	}
}

// New returns a Mixer producing channels x rate audio.
func New(channels, rate int, opts ...Option) (*Mixer, error) {
	if channels <= 0 || rate <= 0 {
		return nil, audio.ErrInvalidFormat
	}

	m := &Mixer{
		channels: channels,
		rate:     rate,
		log:      slog.Default(),
		active:   make([]*input, 0, 16),
	}
	m.scratch = make([]float32, defaultBufferFrames*channels)
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.With("component", "mixer")

	return m, nil
}

func (m *Mixer) SampleRate() int { return m.rate }
func (m *Mixer) Channels() int   { return m.channels }

// Format returns the channel count and sample rate every input is converted to.
func (m *Mixer) Format() (channels, rate int) { return m.channels, m.rate }

// Add registers src, converting it to the mixer format. The source is
// owned by the mixer from now on and is closed once it ends or is removed.
func (m *Mixer) Add(src audio.Source) (Handle, error) {
	if m.closed.Load() {
		return Handle{}, ErrMixerClosed
	}
	m.reap()

	conv, err := audio.Convert(src, m.channels, m.rate)
	if err != nil {
		return Handle{}, fmt.Errorf("adding source: %w", err)
	}

	in := &input{id: uuid.New(), src: conv}
	in.tomb = lockfree.NewNode(in)
	m.inputs.Store(in.id, in)
	m.count.Add(1)
	m.added.Push(in)

	m.log.Debug("input added", slog.String("handle", in.id.String()),
		slog.Int("channels", src.Channels()), slog.Int("sample_rate", src.SampleRate()))

	return Handle{id: in.id}, nil
}

// Remove stops h. No sample of it is produced by a ReadSamples call that
// starts after Remove returns. It reports false when h is unknown or the
// input already ended.
func (m *Mixer) Remove(h Handle) bool {
	defer m.reap()

	v, ok := m.inputs.Load(h.id)
	if !ok {
		return false
	}
	in := v.(*input)
	if in.finished.Load() {
		return false
	}
	return !in.stopped.Swap(true)
}

// Active reports whether h is still producing audio.
func (m *Mixer) Active(h Handle) bool {
	v, ok := m.inputs.Load(h.id)
	if !ok {
		return false
	}
	in := v.(*input)
	return !in.stopped.Load() && !in.finished.Load()
}

// Len counts inputs that have not been dropped by the reading side yet.
func (m *Mixer) Len() int { return int(m.count.Load()) }

// reap closes inputs the reading side retired. It runs on control
// goroutines so Close never executes on the audio path.
func (m *Mixer) reap() {
	m.retired.Drain(func(in *input) {
		m.inputs.Delete(in.id)
		if err := in.src.Close(); err != nil {
			m.log.Warn("closing input", slog.String("handle", in.id.String()), slog.Any("error", err))
		}
	})
}

func (m *Mixer) retire(in *input) {
	in.finished.Store(true)
	m.count.Add(-1)
	m.retired.PushNode(in.tomb)
}

// fill reads exactly want samples from in into m.scratch, stopping early
// when the input ends. It reports whether the input is still alive.
func (m *Mixer) fill(in *input, want int) (int, bool) {
	filled, empty := 0, 0
	for filled < want {
		n, err := in.src.ReadSamples(m.scratch[filled:want])
		filled += n
		switch {
		case errors.Is(err, io.EOF):
			return filled, false
		case err != nil:
			m.log.Warn("input failed, dropping it", slog.String("handle", in.id.String()), slog.Any("error", err))
			return filled, false
		case n == 0:
			// Give up on this chunk rather than spin; the rest stays silent.
			empty++
			if empty >= 3 {
				return filled, true
			}
		}
	}
	return filled, true
}

// ReadSamples mixes one chunk. It always fills a whole number of frames of
// dst and never returns an error.
func (m *Mixer) ReadSamples(dst []float32) (int, error) {
	want := len(dst) - len(dst)%m.channels

	m.added.Drain(func(in *input) { m.active = append(m.active, in) })

	clear(dst[:want])
	if len(m.scratch) < want {
		m.scratch = make([]float32, want)
	}

	kept := m.active[:0]
	for _, in := range m.active {
		if in.stopped.Load() {
			m.retire(in)
			continue
		}

		n, alive := m.fill(in, want)
		for i := range n {
			dst[i] += m.scratch[i]
		}

		if alive {
			kept = append(kept, in)
		} else {
			m.retire(in)
		}
	}
	clear(m.active[len(kept):])
	m.active = kept

	for i := range want {
		dst[i] = audio.Clamp(dst[i])
	}
	return want, nil
}

// Close drops every input and closes it. It must not run concurrently with
// ReadSamples; stop whatever pulls from the mixer first.
func (m *Mixer) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	m.added.Drain(func(in *input) { m.active = append(m.active, in) })
	for _, in := range m.active {
		m.retire(in)
	}
	m.active = m.active[:0]

	var errs []error
	m.retired.Drain(func(in *input) {
		m.inputs.Delete(in.id)
		if err := in.src.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
