// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"time"
)

// ChannelConverter maps the interleaved frames of src to a fixed channel count.
//
// The mapping is deterministic:
//   - equal counts pass through untouched
//   - upmix (N < M): output channel c copies input channel c mod N, so mono
//     is duplicated to every output and stereo to quad becomes L R L R
//   - downmix (N > M): output channel c is the average of every input channel
//     j with j mod M == c, so any layout to mono averages all channels and
//     quad to stereo becomes (0+2)/2, (1+3)/2
//
// No input channel is ever dropped without being averaged in.
type ChannelConverter struct {
	src    Source
	target int
	tmp    []float32
}

func NewChannelConverter(src Source, channels int) *ChannelConverter {
	return &ChannelConverter{
		src:    src,
		target: max(channels, 1),
		tmp:    make([]float32, 4096),
	}
}

func (m *ChannelConverter) SampleRate() int { return m.src.SampleRate() }
func (m *ChannelConverter) Channels() int   { return m.target }
func (m *ChannelConverter) Close() error {
	err := m.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}

	return nil
}

func (m *ChannelConverter) Seek(pos time.Duration) error { return Seek(m.src, pos) }

func (m *ChannelConverter) TotalDuration() (time.Duration, bool) {
	return TotalDuration(m.src)
}

func (m *ChannelConverter) ReadSamples(dst []float32) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if len(dst)%m.target != 0 {
		return 0, ErrInvalidDstSize
	}

	channels := m.src.Channels()
	if channels == m.target {
		// Pass-through
		return m.src.ReadSamples(dst)
	}
	if channels <= 0 {
		return 0, ErrInvalidFormat
	}

	frames := len(dst) / m.target
	samplesNeeded := frames * channels

	// Grow tmp buffer if needed (but don't shrink to avoid thrashing)
	if cap(m.tmp) < samplesNeeded {
		m.tmp = make([]float32, max(samplesNeeded, 8192))
	}
	m.tmp = m.tmp[:samplesNeeded]

	n, err := m.src.ReadSamples(m.tmp)
	if n == 0 {
		return 0, err
	}
	frames = n / channels

	switch {
	case channels == 2 && m.target == 1:
		for f := range frames {
			idx := f << 1
			dst[f] = (m.tmp[idx] + m.tmp[idx+1]) * 0.5
		}
	case channels == 1:
		for f := range frames {
			v := m.tmp[f]
			out := dst[f*m.target : (f+1)*m.target]
			for c := range out {
				out[c] = v
			}
		}
	case channels < m.target:
		for f := range frames {
			in := m.tmp[f*channels : (f+1)*channels]
			out := dst[f*m.target : (f+1)*m.target]
			for c := range out {
				out[c] = in[c%channels]
			}
		}
	default:
		m.downmix(dst, frames, channels)
	}

	return frames * m.target, err
}

func (m *ChannelConverter) downmix(dst []float32, frames, channels int) {
	for f := range frames {
		in := m.tmp[f*channels : (f+1)*channels]
		out := dst[f*m.target : (f+1)*m.target]
		for c := range out {
			sum := float32(0)
			count := 0
			for j := c; j < channels; j += m.target {
				sum += in[j]
				count++
			}
			out[c] = sum / float32(count)
		}
	}
}
