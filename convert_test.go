// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/decoder"
	"github.com/ik5/audpipe/formats/wav"
	"github.com/ik5/audpipe/internal/audiotest"
)

func TestResampleToMono16_Basic(t *testing.T) {
	t.Parallel()

	src := audiotest.NewSineSource(44100, 2, 44100, 440.0)

	pcm16, rate, err := ResampleToMono16(src, 8000, 4096)
	if err != nil {
		t.Fatalf("ResampleToMono16() error = %v", err)
	}
	if rate != 8000 {
		t.Errorf("ResampleToMono16() rate = %d, want 8000", rate)
	}

	// one second at 8kHz
	if len(pcm16) < 7800 || len(pcm16) > 8200 {
		t.Errorf("ResampleToMono16() got %d samples, want ~8000", len(pcm16))
	}
}

func TestResampleToMono16_AlreadyMono(t *testing.T) {
	t.Parallel()

	src := audiotest.NewConstantSource(16000, 1, 16000, 0.5)

	pcm16, _, err := ResampleToMono16(src, 8000, 4096)
	if err != nil {
		t.Fatalf("ResampleToMono16() error = %v", err)
	}
	if len(pcm16) < 7800 || len(pcm16) > 8200 {
		t.Errorf("ResampleToMono16() got %d samples, want ~8000", len(pcm16))
	}

	// The filter settles after a few samples.
	for i, s := range pcm16[64:] {
		if math.Abs(float64(s)-16384) > 200 {
			t.Fatalf("pcm16[%d] = %d, want ~16384", i+64, s)
		}
	}
}

func TestResampleToMono16_SameRateIsExact(t *testing.T) {
	t.Parallel()

	src := audio.FromSamples(1, 8000, []float32{0, 0.5, -0.5, 1, -1})

	pcm16, _, err := ResampleToMono16(src, 8000, 2)
	if err != nil {
		t.Fatalf("ResampleToMono16() error = %v", err)
	}

	want := []int16{0, 16383, -16383, 32767, -32767}
	if len(pcm16) != len(want) {
		t.Fatalf("got %d samples, want %d", len(pcm16), len(want))
	}
	for i := range want {
		if d := int(pcm16[i]) - int(want[i]); d < -1 || d > 1 {
			t.Errorf("pcm16[%d] = %d, want %d", i, pcm16[i], want[i])
		}
	}
}

func TestResampleToMono16_EmptySource(t *testing.T) {
	t.Parallel()

	pcm16, rate, err := ResampleToMono16(audiotest.NewSilentSource(44100, 2, 0), 8000, 4096)
	if err != nil {
		t.Fatalf("ResampleToMono16() error = %v", err)
	}
	if rate != 8000 || len(pcm16) != 0 {
		t.Errorf("ResampleToMono16() = (%d samples, %d), want (0, 8000)", len(pcm16), rate)
	}
}

func TestResampleToMono16_Clamping(t *testing.T) {
	t.Parallel()

	src := audiotest.NewMockSource(8000, 1, 99, func(sample, _ int) float32 {
		switch sample % 3 {
		case 0:
			return 2
		case 1:
			return -2
		}
		return 0
	})

	pcm16, _, err := ResampleToMono16(src, 8000, 4096)
	if err != nil {
		t.Fatalf("ResampleToMono16() error = %v", err)
	}
	for i := 0; i+2 < len(pcm16); i += 3 {
		if pcm16[i] != 32767 || pcm16[i+1] < -32768 || pcm16[i+1] > -32767 {
			t.Fatalf("frame %d = %v, want saturated values", i, pcm16[i:i+3])
		}
	}
}

func TestResampleToMono16_SourceError(t *testing.T) {
	t.Parallel()

	_, _, err := ResampleToMono16(audiotest.NewFailingSource(8000, 1, 100, 0.1), 8000, 64)
	if err == nil {
		t.Fatal("ResampleToMono16() error = nil, want the source error")
	}
}

func TestCollect16_InvalidFormat(t *testing.T) {
	t.Parallel()

	if _, err := Collect16(audiotest.NewSilentSource(8000, 1, 10), 0, 8000, 64); err == nil {
		t.Error("Collect16() with zero channels error = nil")
	}
}

func TestConvertFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "in.wav")
	out := filepath.Join(dir, "out.wav")

	f, err := os.Create(in)
	if err != nil {
		t.Fatal(err)
	}
	// 100ms of mono 8kHz
	if err := wav.WriteWAV16(f, 8000, make([]int16, 800)); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()

	if err := ConvertFile(in, out, 2, 16000); err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}

	src, err := decoder.Open(out)
	if err != nil {
		t.Fatalf("decoding output: %v", err)
	}
	defer src.Close()

	if src.Channels() != 2 || src.SampleRate() != 16000 {
		t.Errorf("output format = %d ch @ %d, want 2 ch @ 16000", src.Channels(), src.SampleRate())
	}
}

func TestConvertFile_Missing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := ConvertFile(filepath.Join(dir, "nope.wav"), filepath.Join(dir, "out.wav"), 1, 8000); err == nil {
		t.Error("ConvertFile() error = nil for a missing input")
	}
}

func BenchmarkResampleToMono16(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(44100, 2, 44100, 440.0)
		_, _, _ = ResampleToMono16(src, 8000, 4096)
	}
}

func BenchmarkResampleToMono16_Upsample(b *testing.B) {
	b.ReportAllocs()

	for b.Loop() {
		src := audiotest.NewSineSource(8000, 2, 8000, 440.0)
		_, _, _ = ResampleToMono16(src, 44100, 4096)
	}
}
