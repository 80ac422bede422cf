// SPDX-License-Identifier: EPL-2.0

package mixer

import (
	"io"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/internal/audiotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMixer(t *testing.T, channels, rate int) *Mixer {
	t.Helper()
	m, err := New(channels, rate)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func pull(t *testing.T, m *Mixer, samples int) []float32 {
	t.Helper()
	dst := make([]float32, samples)
	n, err := m.ReadSamples(dst)
	require.NoError(t, err)
	require.Equal(t, samples-samples%m.Channels(), n)
	return dst[:n]
}

func assertAll(t *testing.T, got []float32, want float32) {
	t.Helper()
	for i, v := range got {
		if math.Abs(float64(v-want)) > 1e-6 {
			t.Fatalf("sample %d = %v, want %v", i, v, want)
		}
	}
}

func TestNew_InvalidFormat(t *testing.T) {
	_, err := New(0, 44100)
	assert.ErrorIs(t, err, audio.ErrInvalidFormat)

	_, err = New(2, -1)
	assert.ErrorIs(t, err, audio.ErrInvalidFormat)
}

func TestMixer_SilenceWhenEmpty(t *testing.T) {
	m := newMixer(t, 2, 48000)

	dst := []float32{9, 9, 9, 9, 9}
	n, err := m.ReadSamples(dst)
	require.NoError(t, err)
	assert.Equal(t, 4, n, "only whole frames are written")
	assertAll(t, dst[:n], 0)

	channels, rate := m.Format()
	assert.Equal(t, 2, channels)
	assert.Equal(t, 48000, rate)
}

func TestMixer_SumAndClamp(t *testing.T) {
	m := newMixer(t, 2, 44100)

	data := []float32{1, -1, 1, -1, 1, -1, 1, -1}
	_, err := m.Add(audio.FromSamples(2, 44100, append([]float32(nil), data...)))
	require.NoError(t, err)
	_, err = m.Add(audio.FromSamples(2, 44100, append([]float32(nil), data...)))
	require.NoError(t, err)

	got := pull(t, m, 8)
	assert.Equal(t, data, got, "2 and -2 saturate to the sample range")
}

func TestMixer_SumWithinRange(t *testing.T) {
	m := newMixer(t, 1, 8000)

	_, err := m.Add(audiotest.NewConstantSource(8000, 1, 100, 0.25))
	require.NoError(t, err)
	_, err = m.Add(audiotest.NewConstantSource(8000, 1, 100, 0.5))
	require.NoError(t, err)

	assertAll(t, pull(t, m, 64), 0.75)
}

func TestMixer_NegatedCopyCancels(t *testing.T) {
	m := newMixer(t, 1, 8000)

	_, err := m.Add(audiotest.NewSineSource(8000, 1, 800, 440))
	require.NoError(t, err)
	_, err = m.Add(audio.NewAmplify(audiotest.NewSineSource(8000, 1, 800, 440), -1))
	require.NoError(t, err)

	assertAll(t, pull(t, m, 512), 0)
}

func TestMixer_SilentInputs(t *testing.T) {
	m := newMixer(t, 2, 8000)
	for range 5 {
		_, err := m.Add(audiotest.NewSilentSource(8000, 2, 1000))
		require.NoError(t, err)
	}
	assertAll(t, pull(t, m, 256), 0)
	assert.Equal(t, 5, m.Len())
}

func TestMixer_ConvertsInputs(t *testing.T) {
	m := newMixer(t, 2, 44100)

	_, err := m.Add(audiotest.NewConstantSource(22050, 1, 22050, 0.5))
	require.NoError(t, err)

	got := pull(t, m, 1024)
	// Skip the first frames where the interpolator primes.
	assertAll(t, got[16:], 0.5)
}

func TestMixer_DropsExhaustedInputs(t *testing.T) {
	m := newMixer(t, 1, 8000)

	src := audiotest.NewConstantSource(8000, 1, 10, 0.5)
	h, err := m.Add(src)
	require.NoError(t, err)
	assert.True(t, m.Active(h))
	assert.Equal(t, 1, m.Len())

	got := pull(t, m, 16)
	assertAll(t, got[:10], 0.5)
	assertAll(t, got[10:], 0)

	assert.False(t, m.Active(h))
	assert.Zero(t, m.Len())
	assert.False(t, m.Remove(h), "removing an exhausted input is a no-op")
	assert.True(t, src.Closed(), "exhausted input is closed")

	// Keeps producing silence afterwards.
	assertAll(t, pull(t, m, 16), 0)
}

func TestMixer_RemoveTakesEffectNextChunk(t *testing.T) {
	m := newMixer(t, 1, 8000)

	keep, err := m.Add(audiotest.NewConstantSource(8000, 1, 1<<20, 0.25))
	require.NoError(t, err)
	src := audiotest.NewConstantSource(8000, 1, 1<<20, 0.5)
	drop, err := m.Add(src)
	require.NoError(t, err)

	assertAll(t, pull(t, m, 32), 0.75)

	assert.True(t, m.Remove(drop))
	assert.False(t, m.Remove(drop), "second Remove reports false")
	assert.False(t, m.Active(drop))

	assertAll(t, pull(t, m, 32), 0.25)
	assert.True(t, m.Active(keep))
	assert.Equal(t, 1, m.Len())

	// Closing happens on the next control call.
	_, err = m.Add(audio.Empty())
	require.NoError(t, err)
	assert.True(t, src.Closed())
}

func TestMixer_RemoveBeforeFirstPull(t *testing.T) {
	m := newMixer(t, 1, 8000)

	h, err := m.Add(audiotest.NewConstantSource(8000, 1, 100, 0.5))
	require.NoError(t, err)
	require.True(t, m.Remove(h))

	assertAll(t, pull(t, m, 32), 0)
	assert.Zero(t, m.Len())
}

func TestMixer_RemoveUnknownHandle(t *testing.T) {
	m := newMixer(t, 1, 8000)
	assert.False(t, m.Remove(Handle{}))
	assert.False(t, m.Active(Handle{}))
	assert.True(t, Handle{}.IsZero())
}

func TestMixer_FailingInputOnlyDropsItself(t *testing.T) {
	m := newMixer(t, 1, 8000)

	bad := audiotest.NewFailingSource(8000, 1, 4, 0.5)
	_, err := m.Add(bad)
	require.NoError(t, err)
	good, err := m.Add(audiotest.NewConstantSource(8000, 1, 1<<20, 0.25))
	require.NoError(t, err)

	for range 4 {
		pull(t, m, 512)
	}
	assert.True(t, m.Active(good))
	assert.Equal(t, 1, m.Len())
	assertAll(t, pull(t, m, 64), 0.25)
}

func TestMixer_AddAfterClose(t *testing.T) {
	m, err := New(1, 8000)
	require.NoError(t, err)

	src := audiotest.NewConstantSource(8000, 1, 100, 0.5)
	_, err = m.Add(src)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	assert.True(t, src.Closed())
	assert.NoError(t, m.Close(), "Close is idempotent")

	_, err = m.Add(audio.Empty())
	assert.ErrorIs(t, err, ErrMixerClosed)
}

func TestMixer_ConcurrentControl(t *testing.T) {
	m := newMixer(t, 2, 48000)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		dst := make([]float32, 512)
		for {
			select {
			case <-stop:
				return
			default:
			}
			n, err := m.ReadSamples(dst)
			if err != nil || n != len(dst) {
				t.Errorf("ReadSamples() = (%d, %v)", n, err)
				return
			}
			for _, v := range dst {
				if v > 1 || v < -1 {
					t.Errorf("sample %v out of range", v)
					return
				}
			}
		}
	}()

	for i := range 200 {
		h, err := m.Add(audiotest.NewSineSource(44100, 1, 4410, 220))
		require.NoError(t, err)
		if i%2 == 0 {
			m.Remove(h)
		}
	}
	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()
}

func TestMixer_NeverEnds(t *testing.T) {
	m := newMixer(t, 1, 8000)
	_, err := m.Add(audiotest.NewConstantSource(8000, 1, 4, 1))
	require.NoError(t, err)

	for range 3 {
		n, err := m.ReadSamples(make([]float32, 8))
		assert.NotErrorIs(t, err, io.EOF)
		assert.Equal(t, 8, n)
	}
}

func BenchmarkMixer_ReadSamples(b *testing.B) {
	m, _ := New(2, 48000)
	for range 8 {
		_, _ = m.Add(audiotest.NewSineSource(48000, 2, math.MaxInt32, 440))
	}
	dst := make([]float32, 1024)

	b.ReportAllocs()
	for b.Loop() {
		_, _ = m.ReadSamples(dst)
	}
}
