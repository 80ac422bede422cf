// SPDX-License-Identifier: EPL-2.0

// Package aiff provides AIFF (Audio Interchange File Format) decoding.
//
// This package uses github.com/go-audio/aiff to decode AIFF files.
// AIFF is Apple's standard audio file format, commonly used on macOS.
//
// # Supported Formats
//
//   - AIFF and uncompressed AIFF-C
//   - 8, 16, 24 and 32-bit big-endian PCM
//   - Any channel count and sample rate
//
// # Decoding AIFF Files
//
//	f, _ := os.Open("audio.aif")
//	src, err := aiff.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// # Seeking
//
// go-audio/aiff has no random access, so Seek reopens the file and decodes
// forward to the requested frame. This is linear in the target position;
// prefer audio.Prefetch when seeking often on the playback path.
//
// # Error Handling
//
//   - ErrNotAiffFile: the input is not a FORM/AIFF container
//   - ErrUnsupportedBitDepth: sample size other than 8, 16, 24 or 32
//   - ErrUnsupportedAiffLayout: missing or invalid COMM chunk
//
// # AIFF vs. WAV
//
// AIFF stores big-endian samples and an 80-bit float sample rate. The
// decoder normalises both, so the resulting audio.Source is
// indistinguishable from a WAV one.
package aiff
