// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
	"time"
)

// Prefetcher decodes its source ahead of time on a background goroutine and
// hands samples to the reader through a single-producer/single-consumer ring.
//
// ReadSamples never blocks: when the producer is behind, the missing part of
// dst is padded with silence and counted as an underrun. Only one goroutine
// may call ReadSamples, and Seek must not run concurrently with it.
type Prefetcher struct {
	src      Source // owned by the producer goroutine
	channels int
	rate     int

	ring []float32
	head atomic.Uint64 // total samples written
	tail atomic.Uint64 // total samples read

	done      atomic.Bool
	closed    atomic.Bool
	err       atomic.Value // error wrapped in errBox
	underruns atomic.Uint64

	mu     sync.Mutex // held by the producer while it touches src
	wake   chan struct{}
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type errBox struct{ err error }

// Prefetch starts decoding src ahead by up to frames frames. The output
// format is fixed to src's format at call time; later span changes of src
// are converted to it.
func Prefetch(ctx context.Context, src Source, frames int) (*Prefetcher, error) {
	channels, rate := src.Channels(), src.SampleRate()
	conv, err := Convert(src, channels, rate)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	p := &Prefetcher{
		src:      conv,
		channels: channels,
		rate:     rate,
		ring:     make([]float32, max(frames, 64)*channels),
		wake:     make(chan struct{}, 1),
		cancel:   cancel,
	}

	p.wg.Add(1)
	go p.produce(ctx)

	return p, nil
}

func (p *Prefetcher) SampleRate() int { return p.rate }
func (p *Prefetcher) Channels() int   { return p.channels }

// Buffered reports how many samples are ready to be read.
func (p *Prefetcher) Buffered() int { return int(p.head.Load() - p.tail.Load()) }

// Underruns counts ReadSamples calls that had to pad with silence.
func (p *Prefetcher) Underruns() uint64 { return p.underruns.Load() }

func (p *Prefetcher) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *Prefetcher) produce(ctx context.Context) {
	defer p.wg.Done()

	size := uint64(len(p.ring))
	scratch := make([]float32, min(len(p.ring)/2, 4096*p.channels))
	scratch = scratch[:len(scratch)-len(scratch)%p.channels]

	for {
		p.mu.Lock()
		free := size - (p.head.Load() - p.tail.Load())
		if p.done.Load() || free < uint64(len(scratch)) {
			p.mu.Unlock()
			select {
			case <-ctx.Done():
				return
			case <-p.wake:
			}
			continue
		}

		n, err := p.src.ReadSamples(scratch)
		head := p.head.Load()
		for i := range n {
			p.ring[(head+uint64(i))%size] = scratch[i]
		}
		p.head.Add(uint64(n))

		if err != nil {
			if err != io.EOF {
				p.err.Store(errBox{err: err})
			}
			p.done.Store(true)
		}
		p.mu.Unlock()

		if ctx.Err() != nil {
			return
		}
	}
}

func (p *Prefetcher) ReadSamples(dst []float32) (int, error) {
	if p.closed.Load() {
		return 0, ErrPrefetchClosed
	}

	want := len(dst) - len(dst)%p.channels
	size := uint64(len(p.ring))

	tail := p.tail.Load()
	avail := int(p.head.Load() - tail)
	n := min(avail, want)
	for i := range n {
		dst[i] = p.ring[(tail+uint64(i))%size]
	}
	p.tail.Add(uint64(n))
	p.signal()

	if n == want {
		return n, nil
	}

	if p.done.Load() && p.head.Load() == p.tail.Load() {
		if box, ok := p.err.Load().(errBox); ok && box.err != nil {
			return n, box.err
		}
		return n, io.EOF
	}

	// Producer is behind: degrade to silence instead of stalling the reader.
	p.underruns.Add(1)
	clear(dst[n:want])
	return want, nil
}

// Seek discards buffered samples and repositions the source.
func (p *Prefetcher) Seek(pos time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := Seek(p.src, pos); err != nil {
		return err
	}
	p.tail.Store(p.head.Load())
	p.err.Store(errBox{})
	p.done.Store(false)
	p.signal()
	return nil
}

func (p *Prefetcher) TotalDuration() (time.Duration, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return TotalDuration(p.src)
}

// Close stops the producer and closes the source.
func (p *Prefetcher) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.cancel()
	p.wg.Wait()
	return p.src.Close()
}
