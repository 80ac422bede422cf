// SPDX-License-Identifier: EPL-2.0

package vorbis

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/ik5/audpipe/audio"
)

// mockOggVorbisReader simulates the oggvorbis.Reader for testing
type mockOggVorbisReader struct {
	sampleRate   int
	channels     int
	samples      []float32
	offset       int // in values
	returnErrors bool
}

func (m *mockOggVorbisReader) SampleRate() int { return m.sampleRate }
func (m *mockOggVorbisReader) Channels() int   { return m.channels }

// Read mirrors oggvorbis: it returns values, not frames, and may report
// io.EOF together with the last data.
func (m *mockOggVorbisReader) Read(buf []float32) (int, error) {
	if m.returnErrors {
		return 0, errors.New("invalid packet")
	}
	if m.offset >= len(m.samples) {
		return 0, io.EOF
	}

	buf = buf[:len(buf)-len(buf)%m.channels]
	n := copy(buf, m.samples[m.offset:])
	m.offset += n

	if m.offset >= len(m.samples) {
		return n, io.EOF
	}
	return n, nil
}

func (m *mockOggVorbisReader) Position() int64 { return int64(m.offset / m.channels) }
func (m *mockOggVorbisReader) Length() int64   { return int64(len(m.samples) / m.channels) }

func (m *mockOggVorbisReader) SetPosition(pos int64) error {
	m.offset = int(pos) * m.channels
	return nil
}

func newMockSource(rate, channels int, samples []float32) (*source, *mockOggVorbisReader) {
	m := &mockOggVorbisReader{sampleRate: rate, channels: channels, samples: samples}
	return &source{dec: m, sampleRate: rate, channels: channels, seekable: true}, m
}

func TestMagic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		header []byte
		want   bool
	}{
		{"ogg page", []byte("OggS\x00\x02\x00\x00"), true},
		{"flac", []byte("fLaC"), false},
		{"short", []byte("Ogg"), false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Magic(tt.header); got != tt.want {
				t.Errorf("Magic(%q) = %v, want %v", tt.header, got, tt.want)
			}
		})
	}
}

func TestDecoder_InvalidInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte("This is not Ogg Vorbis data")))
	if !errors.Is(err, ErrNotVorbisFile) {
		t.Errorf("Decode() error = %v, want ErrNotVorbisFile", err)
	}
}

func TestDecoder_EmptyInput(t *testing.T) {
	t.Parallel()

	_, err := Decoder{}.Decode(bytes.NewReader([]byte{}))
	if err == nil {
		t.Error("Decode() error = nil, want error for empty input")
	}
}

func TestSource_Metadata(t *testing.T) {
	t.Parallel()

	src, _ := newMockSource(44100, 2, make([]float32, 100))

	if src.SampleRate() != 44100 {
		t.Errorf("SampleRate() = %d, want 44100", src.SampleRate())
	}
	if src.Channels() != 2 {
		t.Errorf("Channels() = %d, want 2", src.Channels())
	}
}

func TestSource_ReadSamples_CountsValues(t *testing.T) {
	t.Parallel()

	data := []float32{0.1, -0.1, 0.2, -0.2, 0.3, -0.3}
	src, _ := newMockSource(48000, 2, data)

	dst := make([]float32, 16)
	n, err := src.ReadSamples(dst)
	if n != len(data) {
		t.Fatalf("ReadSamples() n = %d, want %d", n, len(data))
	}
	if err != io.EOF {
		t.Errorf("ReadSamples() error = %v, want io.EOF", err)
	}
	for i, want := range data {
		if dst[i] != want {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want)
		}
	}
}

func TestSource_ReadSamples_EmptyBuffer(t *testing.T) {
	t.Parallel()

	src, _ := newMockSource(44100, 2, make([]float32, 100))

	if n, err := src.ReadSamples(nil); n != 0 || err != nil {
		t.Errorf("ReadSamples(nil) = (%d, %v), want (0, nil)", n, err)
	}
	if n, err := src.ReadSamples(make([]float32, 1)); n != 0 || err != nil {
		t.Errorf("ReadSamples(1) = (%d, %v), want (0, nil)", n, err)
	}
}

func TestSource_ReadSamples_EOF(t *testing.T) {
	t.Parallel()

	src, _ := newMockSource(44100, 1, []float32{0.5, 0.5})

	dst := make([]float32, 4)
	if n, err := src.ReadSamples(dst); n != 2 || err != io.EOF {
		t.Errorf("ReadSamples() = (%d, %v), want (2, EOF)", n, err)
	}
	if n, err := src.ReadSamples(dst); n != 0 || err != io.EOF {
		t.Errorf("ReadSamples() after EOF = (%d, %v), want (0, EOF)", n, err)
	}
}

func TestSource_ReadSamples_Channels(t *testing.T) {
	t.Parallel()

	for _, channels := range []int{1, 2, 6} {
		data := make([]float32, 10*channels)
		for i := range data {
			data[i] = float32(i%channels) / 10
		}
		src, _ := newMockSource(44100, channels, data)

		// 7 does not divide evenly for stereo or 5.1
		dst := make([]float32, 7)
		total := 0
		for {
			n, err := src.ReadSamples(dst)
			if n%channels != 0 {
				t.Fatalf("%d channels: n = %d is not whole frames", channels, n)
			}
			for i := range n {
				if want := float32((total+i)%channels) / 10; dst[i] != want {
					t.Fatalf("%d channels: sample %d = %v, want %v", channels, total+i, dst[i], want)
				}
			}
			total += n
			if err == io.EOF {
				break
			}
			if err != nil {
				t.Fatalf("ReadSamples() error = %v", err)
			}
		}
		if total != len(data) {
			t.Errorf("%d channels: read %d samples, want %d", channels, total, len(data))
		}
	}
}

func TestSource_ReadSamples_DecoderError(t *testing.T) {
	t.Parallel()

	src, m := newMockSource(44100, 2, make([]float32, 100))
	m.returnErrors = true

	_, err := src.ReadSamples(make([]float32, 16))
	if !errors.Is(err, audio.ErrCorruptStream) {
		t.Fatalf("ReadSamples() error = %v, want ErrCorruptStream", err)
	}
	var de *audio.DecodeError
	if !errors.As(err, &de) || de.Format != "vorbis" {
		t.Errorf("error = %#v, want *audio.DecodeError for vorbis", err)
	}
}

func TestSource_SeekAndPosition(t *testing.T) {
	t.Parallel()

	data := make([]float32, 1000)
	for i := range data {
		data[i] = float32(i) / 1000
	}
	src, _ := newMockSource(1000, 1, data)

	if d, ok := src.TotalDuration(); !ok || d != time.Second {
		t.Errorf("TotalDuration() = (%v, %v), want (1s, true)", d, ok)
	}

	if err := src.Seek(250 * time.Millisecond); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if got := src.Position(); got != 250*time.Millisecond {
		t.Errorf("Position() = %v, want 250ms", got)
	}

	dst := make([]float32, 1)
	if _, err := src.ReadSamples(dst); err != nil {
		t.Fatalf("ReadSamples() error = %v", err)
	}
	if dst[0] != data[250] {
		t.Errorf("sample after seek = %v, want %v", dst[0], data[250])
	}

	// Drain, then seek back.
	for {
		if _, err := src.ReadSamples(make([]float32, 256)); err != nil {
			break
		}
	}
	if err := src.Seek(0); err != nil {
		t.Fatalf("Seek(0) error = %v", err)
	}
	if n, err := src.ReadSamples(dst); n != 1 || err != nil {
		t.Errorf("ReadSamples() after rewind = (%d, %v), want (1, nil)", n, err)
	}

	if err := src.Seek(-time.Millisecond); !errors.Is(err, audio.ErrSeekOutOfRange) {
		t.Errorf("Seek(-1ms) error = %v, want ErrSeekOutOfRange", err)
	}
	if err := src.Seek(2 * time.Second); !errors.Is(err, audio.ErrSeekOutOfRange) {
		t.Errorf("Seek(2s) error = %v, want ErrSeekOutOfRange", err)
	}
	if got := src.Position(); got != time.Millisecond {
		t.Errorf("Position() after refused seek = %v, want 1ms", got)
	}
}

func TestSource_SeekUnsupported(t *testing.T) {
	t.Parallel()

	src, _ := newMockSource(44100, 2, make([]float32, 100))
	src.seekable = false

	if err := src.Seek(time.Millisecond); !errors.Is(err, audio.ErrSeekNotSupported) {
		t.Errorf("Seek() error = %v, want ErrSeekNotSupported", err)
	}
}

func TestSource_UnknownLength(t *testing.T) {
	t.Parallel()

	src, _ := newMockSource(44100, 2, nil)
	if _, ok := src.TotalDuration(); ok {
		t.Error("TotalDuration() ok = true for zero length")
	}
}

func TestSource_Close(t *testing.T) {
	t.Parallel()

	src, _ := newMockSource(44100, 2, make([]float32, 100))
	if err := src.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

// BenchmarkSource_ReadSamples benchmarks reading samples
func BenchmarkSource_ReadSamples(b *testing.B) {
	src, m := newMockSource(44100, 2, make([]float32, 44100*2))
	dst := make([]float32, 4096)

	b.ReportAllocs()

	for b.Loop() {
		m.offset = 0
		src.eof = false
		_, _ = src.ReadSamples(dst)
	}
}
