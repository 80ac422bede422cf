// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/audpipe/utils"
)

// Collect drains src into memory. It stops at io.EOF and returns the samples
// read so far together with any other error.
//
// Collect never returns for an infinite source.
func Collect(src Source, bufSize int) ([]float32, error) {
	if bufSize <= 0 {
		return nil, ErrInvalidDstSize
	}

	buf := make([]float32, bufSize)
	out := make([]float32, 0, bufSize)
	for {
		n, err := src.ReadSamples(buf)
		out = append(out, buf[:n]...)

		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, fmt.Errorf("%w", err)
		}
	}
}

// CollectInt16 drains src and converts every sample to 16-bit PCM.
func CollectInt16(src Source, bufSize int) ([]int16, error) {
	if bufSize <= 0 {
		return nil, ErrInvalidDstSize
	}

	buf := make([]float32, bufSize)
	pcm16 := make([]int16, 0, bufSize)
	for {
		n, err := src.ReadSamples(buf)
		for _, x := range buf[:n] {
			pcm16 = append(pcm16, utils.Float32ToInt16(x))
		}

		if err == io.EOF {
			return pcm16, nil
		}
		if err != nil {
			return nil, fmt.Errorf("%w", err)
		}
	}
}
