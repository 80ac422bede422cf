// SPDX-License-Identifier: EPL-2.0

// Package flac provides FLAC (Free Lossless Audio Codec) decoding.
//
// This package uses github.com/mewkiz/flac. Frames are decoded one at a
// time and handed out as interleaved float32 samples.
//
//	f, _ := os.Open("audio.flac")
//	src, err := flac.Decoder{}.Decode(f)
//	if err != nil {
//	    // Handle error
//	}
//
// # Spans
//
// FLAC frame headers may carry their own sample rate, channel assignment and
// bit depth. The source always holds the next frame decoded, so Channels and
// SampleRate describe exactly the samples the following ReadSamples call
// returns, and a single call never mixes two frame formats.
//
// # Seeking
//
// With an io.ReadSeeker input the stream is opened through flac.NewSeek and
// the source seeks to the containing frame, then drops the leading samples
// of that frame. Plain readers decode as a stream without seeking.
package flac
