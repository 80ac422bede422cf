// SPDX-License-Identifier: EPL-2.0

// Package vorbis provides Ogg Vorbis audio file decoding.
//
// This package uses github.com/jfreymuth/oggvorbis to decode Ogg Vorbis files.
// Vorbis is a free, open-source lossy audio compression format.
//
// # Decoding Vorbis Files
//
//	f, _ := os.Open("audio.ogg")
//	src, err := vorbis.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//
//	buf := make([]float32, 4096)
//	n, err := src.ReadSamples(buf)
//
// # Output Format
//
//   - Sample format: float32 in range [-1.0, 1.0]
//   - Channels and sample rate: as stored in the identification header
//
// # Seeking
//
// When the input is an io.Seeker oggvorbis scans for the last page to learn
// the stream length. The source then implements audio.Seeker with sample
// accurate positioning and reports its duration. Streams read from a plain
// io.Reader are not seekable.
//
// # Error Handling
//
// Decode wraps ErrNotVorbisFile when the headers cannot be parsed. Packet
// errors during playback surface as *audio.DecodeError wrapping
// audio.ErrCorruptStream.
package vorbis
