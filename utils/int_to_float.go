// SPDX-License-Identifier: EPL-2.0

package utils

// IntToFloat32 normalizes a signed integer sample of the given bit depth
// into [-1, 1). Depths outside 1..32 are treated as 16-bit.
func IntToFloat32(v int, bitDepth int) float32 {
	if bitDepth < 1 || bitDepth > 32 {
		bitDepth = 16
	}

	return float32(float64(v) / float64(int64(1)<<(bitDepth-1)))
}

// Uint8ToFloat32 decodes unsigned 8-bit PCM centered at 128.
func Uint8ToFloat32(v uint8) float32 {
	return float32(int(v)-128) / 128.0
}
