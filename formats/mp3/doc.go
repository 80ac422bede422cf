// SPDX-License-Identifier: EPL-2.0

// Package mp3 provides MP3 audio file decoding.
//
// This package uses github.com/hajimehoshi/go-mp3 to decode MPEG-1 and
// MPEG-2 layer III streams into an audio.Source.
//
// # Decoding MP3 Files
//
//	f, _ := os.Open("audio.mp3")
//	src, err := mp3.Decoder{}.Decode(f)
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
//   - Channels: always 2 (go-mp3 duplicates mono streams)
//   - Sample rate: taken from the first frame
//
// # Seeking
//
// When the reader handed to Decode is an io.Seeker the source implements
// audio.Seeker, audio.Durationer and audio.Positioner. go-mp3 scans the frame
// index up front for this. Other readers are decoded as a stream and
// audio.Seek returns a *audio.SeekError wrapping audio.ErrSeekNotSupported.
//
// # Detection
//
// Magic accepts an ID3v2 tag or a layer III frame header. Raw MPEG streams
// without a tag have no fixed signature, so decoder registries also try this
// decoder as a fallback.
//
// # Errors
//
// Decode wraps ErrNotMP3File. Failures after decoding started surface from
// ReadSamples as *audio.DecodeError wrapping audio.ErrCorruptStream.
package mp3
