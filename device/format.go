// SPDX-License-Identifier: EPL-2.0

package device

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/utils"
)

// SampleFormat is the byte layout a device expects.
type SampleFormat int

const (
	FormatFloat32LE SampleFormat = iota + 1
	FormatInt16LE
	FormatUint8
)

// Width is the size of one sample in bytes.
func (f SampleFormat) Width() int {
	switch f {
	case FormatFloat32LE:
		return 4
	case FormatInt16LE:
		return 2
	case FormatUint8:
		return 1
	default:
		return 0
	}
}

func (f SampleFormat) String() string {
	switch f {
	case FormatFloat32LE:
		return "f32le"
	case FormatInt16LE:
		return "s16le"
	case FormatUint8:
		return "u8"
	default:
		return fmt.Sprintf("SampleFormat(%d)", int(f))
	}
}

// ParseSampleFormat accepts the names returned by String plus a few
// common aliases.
func ParseSampleFormat(s string) (SampleFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "f32le", "f32", "float32":
		return FormatFloat32LE, nil
	case "s16le", "s16", "int16":
		return FormatInt16LE, nil
	case "u8", "uint8":
		return FormatUint8, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSampleFormat, s)
}

// Encode writes src into dst, saturating out of range samples, and returns
// the number of bytes written. dst must hold len(src)*Width() bytes.
func (f SampleFormat) Encode(dst []byte, src []float32) int {
	switch f {
	case FormatFloat32LE:
		for i, v := range src {
			binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(audio.Clamp(v)))
		}
	case FormatInt16LE:
		for i, v := range src {
			binary.LittleEndian.PutUint16(dst[i*2:], uint16(utils.Float32ToInt16(v)))
		}
	case FormatUint8:
		for i, v := range src {
			dst[i] = utils.Float32ToUint8(v)
		}
	default:
		return 0
	}
	return len(src) * f.Width()
}

// Silence fills dst with the format's zero level.
func (f SampleFormat) Silence(dst []byte) {
	if f == FormatUint8 {
		for i := range dst {
			dst[i] = 0x80
		}
		return
	}
	clear(dst)
}
