// SPDX-License-Identifier: EPL-2.0

package main

import (
	"testing"
	"time"

	"github.com/ik5/audpipe/device"
	"github.com/ik5/audpipe/internal/audiotest"
	"github.com/ik5/audpipe/mixer"
	"github.com/ik5/audpipe/sink"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("http://example.com/a.mp3"))
	assert.True(t, isURL("https://example.com/a.ogg"))
	assert.False(t, isURL("/tmp/a.wav"))
	assert.False(t, isURL("ftp://example.com/a.wav"))
}

func TestMixFormat(t *testing.T) {
	ch, rate := mixFormat(device.Config{})
	assert.Equal(t, 2, ch)
	assert.Equal(t, 48000, rate)

	ch, rate = mixFormat(device.Config{Channels: 1, SampleRate: 22050})
	assert.Equal(t, 1, ch)
	assert.Equal(t, 22050, rate)
}

func TestNewBackend(t *testing.T) {
	for _, name := range []string{"malgo", "oto", "portaudio", "manual"} {
		b, err := newBackend(name)
		require.NoError(t, err, name)
		assert.Equal(t, name, b.Name())
	}

	_, err := newBackend("alsa")
	assert.Error(t, err)
}

func renderSetup(t *testing.T, frames ...int) (*device.Manual, *mixer.Mixer, device.Config) {
	t.Helper()

	m, err := mixer.New(1, 8000)
	require.NoError(t, err)
	for _, n := range frames {
		s, err := sink.Connect(m)
		require.NoError(t, err)
		require.NoError(t, s.Append(audiotest.NewConstantSource(8000, 1, n, 0.25)))
		s.Detach()
	}

	b := device.NewManual(device.FormatInt16LE)
	out, err := device.Open(b, m, device.Config{
		Channels:        1,
		SampleRate:      8000,
		Format:          device.FormatInt16LE,
		FramesPerBuffer: 64,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = out.Close() })
	return b, m, out.Config()
}

func TestRender_UntilAllSinksEnd(t *testing.T) {
	b, m, cfg := renderSetup(t, 100, 200)

	pcm, err := render(b, m, cfg, 0)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(pcm), 200)
	assert.Zero(t, len(pcm)%64, "whole buffers are rendered")

	// Both sinks overlap for the first 100 frames.
	assert.InDelta(t, 16384, pcm[0], 1)
	assert.InDelta(t, 16384, pcm[99], 1)
	assert.InDelta(t, 8192, pcm[100], 1)
	assert.InDelta(t, 8192, pcm[199], 1)
	for _, v := range pcm[200:] {
		assert.Zero(t, v)
	}
	assert.Zero(t, m.Len())
}

func TestRender_MaxDuration(t *testing.T) {
	b, m, cfg := renderSetup(t, 8000)

	pcm, err := render(b, m, cfg, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Len(t, pcm, 80)
}
