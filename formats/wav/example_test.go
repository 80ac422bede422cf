// SPDX-License-Identifier: EPL-2.0

package wav_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/wav"
)

func ExampleWritePCM16() {
	// Two stereo frames: left and right are mirrored.
	pcm := []int16{16384, -16384, 8192, -8192}

	var buf bytes.Buffer
	if err := wav.WritePCM16(&buf, 44100, 2, pcm); err != nil {
		fmt.Println(err)
		return
	}

	src, err := wav.Decoder{}.Decode(bytes.NewReader(buf.Bytes()))
	if err != nil {
		fmt.Println(err)
		return
	}
	samples, _ := audio.Collect(src, 64)

	fmt.Printf("%d bytes, %d Hz, %d channels\n", buf.Len(), src.SampleRate(), src.Channels())
	fmt.Println(samples)
	// Output:
	// 52 bytes, 44100 Hz, 2 channels
	// [0.5 -0.5 0.25 -0.25]
}

func ExampleWritePCM16_invalidLayout() {
	err := wav.WritePCM16(&bytes.Buffer{}, 48000, 0, []int16{1, 2})
	fmt.Println(errors.Is(err, wav.ErrUnsupportedWavLayout))
	// Output: true
}

func ExampleDecoder_Decode() {
	var buf bytes.Buffer
	_ = wav.WriteWAV16(&buf, 16000, []int16{-32768, 0, 16384})

	src, err := wav.Decoder{}.Decode(&buf)
	if err != nil {
		fmt.Println(err)
		return
	}
	d, _ := audio.TotalDuration(src)
	samples, _ := audio.Collect(src, 64)

	fmt.Println(src.Channels(), src.SampleRate(), d)
	fmt.Println(samples)
	// Output:
	// 1 16000 187.5µs
	// [-1 0 0.5]
}

func ExampleDecoder_Decode_notWAV() {
	_, err := wav.Decoder{}.Decode(strings.NewReader("ID3 this is an mp3"))
	fmt.Println(errors.Is(err, wav.ErrNotWavFile))
	// Output: true
}
