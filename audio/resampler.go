// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/ik5/audpipe/utils"
)

// ErrChannelsChanged is returned by Resampler when its source switches channel count.
// Wrap the source with NewChannelConverter (or use Convert) to avoid it.
var ErrChannelsChanged = errors.New("resampler: source channel count changed")

// maxEmptyReads bounds how often a source may answer (0, nil) before it is
// treated as exhausted.
const maxEmptyReads = 8

// Resampler streams from src to target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// Includes basic anti-aliasing filtering when downsampling.
//
// The source rate is re-read every time the internal buffer is refilled, so
// sources that change rate between spans (or a Speed wrapper) are followed
// without resetting the interpolation phase.
//
// While the source rate equals the target rate and the phase is on a frame
// boundary, samples are read straight into the caller's buffer: nothing is
// read ahead, so changes upstream show up on the very next call.
type Resampler struct {
	src      Source
	dstRate  int
	ratio    float64 // srcRate / dstRate - how many source frames per output frame
	channels int

	// Ring of 4 frames for cubic interpolation
	// frames[0] = t-1, frames[1] = t0, frames[2] = t+1, frames[3] = t+2
	frames   [4][]float32
	hasFrame [4]bool
	primed   bool
	done     bool

	// Fractional position between frames[1] and frames[2]
	pos float64

	srcBuf []float32
	bufPos int
	bufLen int
	eof    bool
	srcErr error // delivered once the buffered frames are drained

	// frames left over from interpolation, played before reading directly
	spill    []float32
	spillPos int
	spillLen int
	empty    int // consecutive (0, nil) reads in passthrough

	filterState []float32
	filterInit  bool
	filterAlpha float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := max(src.Channels(), 1)

	r := &Resampler{
		src:         src,
		dstRate:     dstRate,
		channels:    channels,
		srcBuf:      make([]float32, 256*channels),
		spill:       make([]float32, (256+3)*channels),
		filterState: make([]float32, channels),
		// Simple one-pole low-pass, cutoff roughly at destination Nyquist
		filterAlpha: 0.5,
	}
	r.setRate(src.SampleRate())

	for i := range r.frames {
		r.frames[i] = make([]float32, channels)
	}

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }

func (r *Resampler) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// Seek repositions the inner source and drops the interpolation history.
func (r *Resampler) Seek(pos time.Duration) error {
	if err := Seek(r.src, pos); err != nil {
		return err
	}
	r.reset()
	return nil
}

func (r *Resampler) TotalDuration() (time.Duration, bool) {
	return TotalDuration(r.src)
}

// Reset drops buffered source frames and the interpolation history without
// touching the source. Use it after the source was repositioned or swapped
// behind the resampler's back.
func (r *Resampler) Reset() { r.reset() }

func (r *Resampler) reset() {
	r.primed = false
	r.done = false
	r.eof = false
	r.srcErr = nil
	r.pos = 0
	r.bufPos, r.bufLen = 0, 0
	r.spillPos, r.spillLen = 0, 0
	r.empty = 0
	r.filterInit = false
	for i := range r.hasFrame {
		r.hasFrame[i] = false
	}
}

func (r *Resampler) setRate(srcRate int) {
	if srcRate <= 0 || r.dstRate <= 0 {
		r.ratio = 1
		return
	}
	r.ratio = float64(srcRate) / float64(r.dstRate)
}

// fetch copies the next source frame into dst.
func (r *Resampler) fetch(dst []float32) (bool, error) {
	if r.spillPos < r.spillLen {
		copy(dst, r.spill[r.spillPos:r.spillPos+r.channels])
		r.spillPos += r.channels
		r.filter(dst)
		return true, nil
	}

	empty := 0
	for r.bufPos >= r.bufLen {
		if r.eof {
			return false, nil
		}
		if r.src.Channels() != r.channels {
			return false, ErrChannelsChanged
		}
		r.setRate(r.src.SampleRate())

		n, err := r.src.ReadSamples(r.srcBuf)
		r.bufPos, r.bufLen = 0, n-n%r.channels
		if err != nil {
			r.eof = true
			if err != io.EOF {
				r.srcErr = fmt.Errorf("%w", err)
			}
		}
		if r.bufLen == 0 && !r.eof {
			empty++
			if empty >= maxEmptyReads {
				r.eof = true
			}
		}
	}

	copy(dst, r.srcBuf[r.bufPos:r.bufPos+r.channels])
	r.bufPos += r.channels
	r.filter(dst)

	return true, nil
}

// filter is a one-pole low-pass applied when downsampling:
// y[n] = alpha * x[n] + (1-alpha) * y[n-1]
func (r *Resampler) filter(dst []float32) {
	if r.ratio > 1.0 {
		if !r.filterInit {
			copy(r.filterState, dst)
			r.filterInit = true
		}
		for c := range r.channels {
			dst[c] = r.filterAlpha*dst[c] + (1-r.filterAlpha)*r.filterState[c]
			r.filterState[c] = dst[c]
		}
	}
}

func (r *Resampler) endErr() error {
	if r.srcErr != nil {
		return r.srcErr
	}
	return io.EOF
}

// prime loads the first frame twice (t-1 duplicates t0) plus two look-ahead frames.
func (r *Resampler) prime() error {
	ok, err := r.fetch(r.frames[1])
	if err != nil {
		return err
	}
	if !ok {
		r.done = true
		return nil
	}
	copy(r.frames[0], r.frames[1])
	r.hasFrame[0], r.hasFrame[1] = true, true

	for i := 2; i < 4; i++ {
		ok, err = r.fetch(r.frames[i])
		if err != nil {
			return err
		}
		r.hasFrame[i] = ok
	}
	r.primed = true
	return nil
}

// advance shifts the frame window one source frame forward.
func (r *Resampler) advance() error {
	// Rotate slice headers instead of copying: [0,1,2,3] -> [1,2,3,0]
	oldest := r.frames[0]
	r.frames[0], r.frames[1], r.frames[2], r.frames[3] = r.frames[1], r.frames[2], r.frames[3], oldest
	r.hasFrame[0], r.hasFrame[1], r.hasFrame[2] = r.hasFrame[1], r.hasFrame[2], r.hasFrame[3]

	if !r.hasFrame[2] {
		r.hasFrame[3] = false
		return nil
	}
	ok, err := r.fetch(r.frames[3])
	r.hasFrame[3] = ok
	return err
}

// ReadSamples produces dst samples at the target rate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if r.done {
		return 0, r.endErr()
	}
	if !r.primed && r.passthrough() {
		return r.readDirect(dst)
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
		if r.done {
			return 0, r.endErr()
		}
	}

	written := 0
	framesNeeded := len(dst) / r.channels

	for written < framesNeeded {
		for r.pos >= 1.0 {
			r.pos -= 1.0
			if err := r.advance(); err != nil {
				return written * r.channels, err
			}
		}

		// Last source frame: only an exact hit on it is still inside the stream.
		if !r.hasFrame[1] || (!r.hasFrame[2] && r.pos != 0) {
			r.done = true
			return written * r.channels, r.endErr()
		}

		if r.pos == 0 && r.ratio == 1 && r.passthrough() {
			r.drainWindow()
			n, err := r.readDirect(dst[written*r.channels:])
			return written*r.channels + n, err
		}

		out := dst[written*r.channels : (written+1)*r.channels]
		if r.pos == 0 {
			copy(out, r.frames[1])
		} else {
			alpha := float32(r.pos)
			for c := range r.channels {
				y0 := r.frames[1][c]
				if r.hasFrame[0] {
					y0 = r.frames[0][c]
				}
				y1 := r.frames[1][c]
				y2 := r.frames[2][c]
				y3 := y2
				if r.hasFrame[3] {
					y3 = r.frames[3][c]
				}
				out[c] = utils.CubicInterpolate(y0, y1, y2, y3, alpha)
			}
		}

		written++
		r.pos += r.ratio
	}

	return written * r.channels, nil
}

// passthrough reports whether the source currently runs at the target rate.
func (r *Resampler) passthrough() bool {
	return r.src.SampleRate() == r.dstRate && r.src.Channels() == r.channels
}

// drainWindow moves every frame read ahead into spill and drops the
// interpolation state, so readDirect continues exactly where the window was.
func (r *Resampler) drainWindow() {
	ch := r.channels
	n := copy(r.spill, r.spill[r.spillPos:r.spillLen])
	for i := 1; i < 4 && r.hasFrame[i]; i++ {
		n += copy(r.spill[n:n+ch], r.frames[i])
	}
	n += copy(r.spill[n:], r.srcBuf[r.bufPos:r.bufLen])
	r.spillPos, r.spillLen = 0, n

	r.bufPos, r.bufLen = 0, 0
	r.primed = false
	r.pos = 0
	r.filterInit = false
	for i := range r.hasFrame {
		r.hasFrame[i] = false
	}
}

// readDirect serves spilled frames first, then reads the source into the
// rest of dst.
func (r *Resampler) readDirect(dst []float32) (int, error) {
	n := 0
	if r.spillPos < r.spillLen {
		n = copy(dst, r.spill[r.spillPos:r.spillLen])
		r.spillPos += n
	}

	for n < len(dst) && !r.eof {
		// A format change goes back through interpolation on the next call.
		if n > 0 && !r.passthrough() {
			return n, nil
		}
		m, err := r.src.ReadSamples(dst[n:])
		m -= m % r.channels
		n += m
		if err != nil {
			r.eof = true
			if err != io.EOF {
				r.srcErr = fmt.Errorf("%w", err)
			}
			break
		}
		if m > 0 {
			r.empty = 0
			continue
		}
		r.empty++
		if r.empty >= maxEmptyReads {
			r.eof = true
			break
		}
		return n, nil
	}

	if r.eof && r.spillPos >= r.spillLen {
		r.done = true
		return n, r.endErr()
	}
	return n, nil
}
