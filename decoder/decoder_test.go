// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wavBytes(t *testing.T, rate, channels int, samples []int16) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, wav.WritePCM16(&buf, rate, channels, samples))
	return buf.Bytes()
}

// fakeDecoder decodes anything into a fixed buffer source, or fails with err.
type fakeDecoder struct {
	err   error
	calls *int
}

func (f fakeDecoder) Decode(r io.Reader) (audio.Source, error) {
	if f.calls != nil {
		*f.calls++
	}
	if f.err != nil {
		return nil, f.err
	}
	return audio.FromSamples(1, 8000, []float32{0.5}), nil
}

func prefix(p string) func([]byte) bool {
	return func(h []byte) bool { return bytes.HasPrefix(h, []byte(p)) }
}

func TestDefault_Order(t *testing.T) {
	var names []string
	for _, f := range Default().Formats() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{FormatWAV, FormatFLAC, FormatVorbis, FormatAIFF, FormatMP3}, names)

	formats := Default().Formats()
	assert.True(t, formats[len(formats)-1].Fallback, "mp3 is the fallback format")
}

func TestDecode_WAV(t *testing.T) {
	data := wavBytes(t, 22050, 2, []int16{16384, -16384, 0, 0})

	src, format, err := New(nil).DecodeFormat(bytes.NewReader(data))
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, FormatWAV, format)
	assert.Equal(t, 2, src.Channels())
	assert.Equal(t, 22050, src.SampleRate())

	got, err := audio.Collect(src, 64)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, -0.5, 0, 0}, got)
}

func TestDecode_NonSeekableReader(t *testing.T) {
	data := wavBytes(t, 8000, 1, []int16{1, 2, 3})

	src, err := Decode(struct{ io.Reader }{bytes.NewReader(data)})
	require.NoError(t, err)

	d, ok := audio.TotalDuration(src)
	assert.True(t, ok)
	assert.Equal(t, 375*time.Microsecond, d)
}

func TestDecode_ReaderNotAtStart(t *testing.T) {
	data := append([]byte("junk"), wavBytes(t, 8000, 1, []int16{1, 2})...)
	r := bytes.NewReader(data)
	_, err := r.Seek(4, io.SeekStart)
	require.NoError(t, err)

	src, err := Decode(r)
	require.NoError(t, err)
	assert.Equal(t, 8000, src.SampleRate())
}

func TestDecode_Unrecognized(t *testing.T) {
	for name, input := range map[string][]byte{
		"text":  []byte("hello, this is plainly not an audio file"),
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			src, err := Decode(bytes.NewReader(input))
			assert.Nil(t, src)
			require.Error(t, err)
			assert.ErrorIs(t, err, audio.ErrUnrecognizedFormat)

			var de *audio.DecodeError
			require.ErrorAs(t, err, &de)
			assert.Empty(t, de.Format)
		})
	}
}

func TestDecode_CorruptAfterMagicMatch(t *testing.T) {
	// A RIFF/WAVE signature with nothing usable behind it.
	data := append([]byte("RIFF\x24\x00\x00\x00WAVE"), make([]byte, 16)...)

	_, err := Decode(bytes.NewReader(data))
	require.Error(t, err)
	assert.ErrorIs(t, err, audio.ErrCorruptStream)
	assert.NotErrorIs(t, err, audio.ErrUnrecognizedFormat)

	var de *audio.DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, FormatWAV, de.Format)
}

func TestDispatcher_PriorityAndFallback(t *testing.T) {
	var first, second, fallback int

	reg := audio.NewRegistry()
	reg.Register(audio.Format{Name: "a", Magic: prefix("AB"), Decoder: fakeDecoder{err: errors.New("nope"), calls: &first}})
	reg.Register(audio.Format{Name: "b", Magic: prefix("A"), Decoder: fakeDecoder{calls: &second}})
	reg.Register(audio.Format{Name: "raw", Fallback: true, Decoder: fakeDecoder{calls: &fallback}})

	src, format, err := New(reg).DecodeFormat(bytes.NewReader([]byte("ABCD")))
	require.NoError(t, err)
	assert.NotNil(t, src)
	assert.Equal(t, "b", format)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)
	assert.Zero(t, fallback)

	// No signature: only the fallback runs.
	_, format, err = New(reg).DecodeFormat(bytes.NewReader([]byte("zzzz")))
	require.NoError(t, err)
	assert.Equal(t, "raw", format)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, fallback)
}

func TestDispatcher_FallbackTriedOnce(t *testing.T) {
	var calls int
	reg := audio.NewRegistry()
	reg.Register(audio.Format{Name: "raw", Magic: prefix("R"), Fallback: true,
		Decoder: fakeDecoder{err: errors.New("bad"), calls: &calls}})

	_, err := New(reg).Decode(bytes.NewReader([]byte("RRRR")))
	assert.ErrorIs(t, err, audio.ErrCorruptStream)
	assert.Equal(t, 1, calls)
}

func TestDispatcher_RewindsBetweenAttempts(t *testing.T) {
	reg := audio.NewRegistry()
	reg.Register(audio.Format{Name: "greedy", Magic: prefix("RIFF"), Decoder: audio.DecoderFunc(func(r io.Reader) (audio.Source, error) {
		_, _ = io.Copy(io.Discard, r)
		return nil, errors.New("consumed everything")
	})})
	reg.Register(audio.Format{Name: FormatWAV, Magic: prefix("RIFF"), Decoder: wav.Decoder{}})

	src, format, err := New(reg).DecodeFormat(bytes.NewReader(wavBytes(t, 8000, 1, []int16{1})))
	require.NoError(t, err)
	assert.Equal(t, FormatWAV, format)
	assert.Equal(t, 1, src.Channels())
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tone.wav")
	require.NoError(t, os.WriteFile(path, wavBytes(t, 8000, 1, []int16{100, 200, 300, 400}), 0o600))

	src, err := Open(path)
	require.NoError(t, err)

	// Seeking is forwarded through the file wrapper.
	require.NoError(t, audio.Seek(src, 250*time.Microsecond))
	pos, ok := audio.Position(src)
	assert.True(t, ok)
	assert.Equal(t, 250*time.Microsecond, pos)

	got, err := audio.Collect(src, 16)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, src.Close())
}

func TestOpen_Missing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenURL(t *testing.T) {
	data := wavBytes(t, 16000, 1, make([]int16, 1600))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "clip.wav", time.Time{}, bytes.NewReader(data))
	}))
	defer srv.Close()

	src, err := New(nil).OpenURL(srv.URL, srv.Client())
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, 16000, src.SampleRate())
	d, ok := audio.TotalDuration(src)
	assert.True(t, ok)
	assert.Equal(t, 100*time.Millisecond, d)
}
