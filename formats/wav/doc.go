// SPDX-License-Identifier: EPL-2.0

// Package wav provides WAV audio file decoding and encoding.
//
// Decoding is built on github.com/go-audio/wav. Encoding writes 16-bit PCM
// directly with a pre-built header.
//
// # Supported Formats
//
// The decoder accepts RIFF/WAVE files with:
//   - Integer PCM at 8 (unsigned), 16, 24 or 32 bits
//   - 32-bit IEEE float
//   - WAVE_FORMAT_EXTENSIBLE wrapping either of the above
//   - Any channel count and sample rate
//
// # Decoding WAV Files
//
//	f, _ := os.Open("audio.wav")
//	src, err := wav.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// Readers that are not io.ReadSeeker are buffered in memory first, since
// go-audio needs to seek while parsing chunks. The returned source
// implements audio.Seeker, audio.Durationer and audio.Positioner; seeking
// jumps straight to the frame offset inside the data chunk.
//
// # Writing WAV Files
//
//	samples := []int16{100, -100, 200, -200}
//	f, _ := os.Create("output.wav")
//	err := wav.WriteWAV16(f, 8000, samples)      // mono
//	err = wav.WritePCM16(f, 44100, 2, samples)   // interleaved stereo
//
// # Error Handling
//
//   - ErrNotWavFile: the input is not a RIFF/WAVE file
//   - ErrUnsupportedWavLayout: compressed or unknown format tag
//   - ErrUnsupportedBitDepth: a sample size the decoder cannot map
//   - ErrUnsupportedWavChunks: no data chunk could be located
//
// Errors hit while streaming are returned from ReadSamples as
// *audio.DecodeError wrapping audio.ErrCorruptStream:
//
//	if errors.Is(err, audio.ErrCorruptStream) {
//	    // drop this source only
//	}
package wav
