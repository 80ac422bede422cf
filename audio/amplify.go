// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"math"
	"sync/atomic"
	"time"
)

// atomicFloat32 stores a float32 parameter shared between a control
// goroutine and the goroutine pulling samples.
type atomicFloat32 struct {
	bits atomic.Uint32
}

func (a *atomicFloat32) Load() float32 { return math.Float32frombits(a.bits.Load()) }
func (a *atomicFloat32) Store(v float32) { a.bits.Store(math.Float32bits(v)) }

// Amplify multiplies every sample by a gain that can be changed while playing.
// Results saturate at [-1, 1].
type Amplify struct {
	src  Source
	gain atomicFloat32
}

func NewAmplify(src Source, gain float32) *Amplify {
	a := &Amplify{src: src}
	a.gain.Store(gain)
	return a
}

// SetGain takes effect on the next ReadSamples call.
func (a *Amplify) SetGain(gain float32) { a.gain.Store(gain) }
func (a *Amplify) Gain() float32        { return a.gain.Load() }

func (a *Amplify) SampleRate() int { return a.src.SampleRate() }
func (a *Amplify) Channels() int   { return a.src.Channels() }
func (a *Amplify) Close() error {
	err := a.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (a *Amplify) Seek(pos time.Duration) error { return Seek(a.src, pos) }

func (a *Amplify) TotalDuration() (time.Duration, bool) {
	return TotalDuration(a.src)
}

func (a *Amplify) ReadSamples(dst []float32) (int, error) {
	n, err := a.src.ReadSamples(dst)
	gain := a.gain.Load()
	if gain == 1 {
		return n, err
	}
	for i := range n {
		dst[i] = Clamp(dst[i] * gain)
	}
	return n, err
}

// Clamp saturates v to the valid sample range [-1, 1].
func Clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
