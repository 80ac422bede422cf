// SPDX-License-Identifier: EPL-2.0

package device

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/ik5/audpipe/audio"
)

// maxEmptyReads bounds how often Fill retries a source that returns no data
// without an error before padding the rest of the buffer with silence.
const maxEmptyReads = 3

// Output bridges an audio.Source to a device stream. The backend's audio
// thread pulls through Fill; Close stops the stream before the source is
// released.
type Output struct {
	backend string
	cfg     Config
	src     audio.Source
	stream  Stream
	log     *slog.Logger

	scratch []float32 // owned by Fill

	closed    atomic.Bool
	ended     atomic.Bool
	starving  atomic.Bool
	underruns atomic.Int64
	done      chan struct{}

	closeOnce sync.Once
	closeErr  error
}

type Option func(*Output)

// WithLogger sets the logger for stream state changes.
func WithLogger(l *slog.Logger) Option {
	return func(o *Output) { o.log = l }
}

// Open negotiates a configuration for src with b, converts src when the
// device wants a different channel count or rate, and starts the stream.
//
// Zero fields of want default to the source format, float32 samples and
// DefaultFramesPerBuffer. On success the Output owns src and closes it with
// Close; on error src is left untouched and the caller keeps it.
func Open(b Backend, src audio.Source, want Config, opts ...Option) (*Output, error) {
	want = want.withDefaults(src.Channels(), src.SampleRate())
	if err := want.Validate(); err != nil {
		return nil, &StreamError{Backend: b.Name(), Err: err}
	}

	cfg, ok := b.Supports(want)
	if !ok {
		return nil, &StreamError{Backend: b.Name(), Err: fmt.Errorf("%w: %v", ErrFormatNegotiationFailed, want)}
	}
	cfg = cfg.withDefaults(want.Channels, want.SampleRate)

	o := &Output{
		backend: b.Name(),
		cfg:     cfg,
		src:     src,
		log:     slog.Default(),
		scratch: make([]float32, cfg.FramesPerBuffer*cfg.Channels),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(o)
	}
	o.log = o.log.With("component", "device", "backend", o.backend)

	if src.Channels() != cfg.Channels || src.SampleRate() != cfg.SampleRate {
		conv, err := audio.Convert(src, cfg.Channels, cfg.SampleRate)
		if err != nil {
			return nil, &StreamError{Backend: o.backend, Err: err}
		}
		o.src = conv
	}

	stream, err := b.Open(cfg, o.Fill)
	if err != nil {
		return nil, err
	}
	o.stream = stream

	if err := stream.Start(); err != nil {
		_ = stream.Close()
		return nil, Unavailable(o.backend, err)
	}

	o.log.Debug("output started",
		slog.Int("channels", cfg.Channels),
		slog.Int("sample_rate", cfg.SampleRate),
		slog.String("format", cfg.Format.String()),
		slog.Int("frames_per_buffer", cfg.FramesPerBuffer))

	return o, nil
}

// Config is the negotiated stream configuration.
func (o *Output) Config() Config { return o.cfg }

// Underruns counts Fill calls the source could not satisfy.
func (o *Output) Underruns() int64 { return o.underruns.Load() }

// Done is closed once the source ended or failed. A mixer never ends, so
// an Output playing one stays open until Close.
func (o *Output) Done() <-chan struct{} { return o.done }

// Fill encodes frames frames of the source into buf. Missing data is
// replaced with silence; after Close or the end of the source buf is
// silence only.
func (o *Output) Fill(buf []byte, frames int) {
	frameSize := o.cfg.FrameSize()
	frames = min(frames, len(buf)/frameSize)
	buf = buf[:frames*frameSize]

	if o.closed.Load() || o.ended.Load() {
		o.cfg.Format.Silence(buf)
		return
	}

	ch := o.cfg.Channels
	done := 0
	for done < frames {
		chunk := min(frames-done, len(o.scratch)/ch)
		want := chunk * ch

		n, err := o.read(o.scratch[:want])
		o.cfg.Format.Encode(buf[done*frameSize:], o.scratch[:n])
		done += n / ch

		if err != nil {
			o.finish(err)
			break
		}
		if n < want {
			o.underrun()
			break
		}
	}

	if done < frames {
		o.cfg.Format.Silence(buf[done*frameSize:])
		return
	}
	if o.starving.Swap(false) {
		o.log.Info("output recovered", slog.Int64("underruns", o.underruns.Load()))
	}
}

// read fills dst, tolerating short reads from the source.
func (o *Output) read(dst []float32) (int, error) {
	filled, empty := 0, 0
	for filled < len(dst) && empty < maxEmptyReads {
		n, err := o.src.ReadSamples(dst[filled:])
		filled += n
		if err != nil {
			return filled, err
		}
		if n == 0 {
			empty++
		}
	}
	return filled, nil
}

func (o *Output) underrun() {
	o.underruns.Add(1)
	if !o.starving.Swap(true) {
		o.log.Warn("output underrun")
	}
}

func (o *Output) finish(err error) {
	if !o.ended.CompareAndSwap(false, true) {
		return
	}
	if !errors.Is(err, io.EOF) {
		o.log.Error("source failed", slog.Any("error", err))
	}
	close(o.done)
}

// Start resumes a stopped stream.
func (o *Output) Start() error {
	if o.closed.Load() {
		return Unavailable(o.backend, errors.New("output closed"))
	}
	return o.stream.Start()
}

// Stop pauses the device. The source keeps its position.
func (o *Output) Stop() error { return o.stream.Stop() }

// Close stops the stream, closes it and then closes the source.
func (o *Output) Close() error {
	o.closeOnce.Do(func() {
		o.closed.Store(true)
		o.closeErr = errors.Join(
			o.stream.Stop(),
			o.stream.Close(),
			o.src.Close(),
		)
		o.log.Debug("output closed", slog.Int64("underruns", o.underruns.Load()))
	})
	return o.closeErr
}
