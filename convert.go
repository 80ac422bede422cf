// SPDX-License-Identifier: EPL-2.0

package audpipe

import (
	"fmt"
	"os"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/decoder"
	"github.com/ik5/audpipe/formats/wav"
)

// ResampleToMono16 converts src to mono at targetRate and collects it as
// 16-bit PCM. bufferSize is the read size in samples. It returns the
// output rate, which is always targetRate.
//
// src is drained but not closed.
func ResampleToMono16(src audio.Source, targetRate int, bufferSize int) ([]int16, int, error) {
	pcm16, err := Collect16(src, 1, targetRate, bufferSize)
	return pcm16, targetRate, err
}

// Collect16 converts src to channels and rate and collects it as
// interleaved 16-bit PCM.
func Collect16(src audio.Source, channels, rate, bufferSize int) ([]int16, error) {
	conv, err := audio.Convert(src, channels, rate)
	if err != nil {
		return nil, err
	}
	return audio.CollectInt16(conv, bufferSize)
}

// ConvertFile decodes in, converts it to channels and rate and writes it to
// out as a 16-bit PCM WAV file.
func ConvertFile(in, out string, channels, rate int) error {
	src, err := decoder.Open(in)
	if err != nil {
		return err
	}
	defer src.Close()

	pcm16, err := Collect16(src, channels, rate, 4096)
	if err != nil {
		return fmt.Errorf("converting %s: %w", in, err)
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := wav.WritePCM16(f, rate, channels, pcm16); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return f.Close()
}
