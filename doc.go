// SPDX-License-Identifier: EPL-2.0

// Package audpipe decodes, converts, mixes and plays audio.
//
// Everything flows through audio.Source, a pull-based stream of interleaved
// float32 samples. Decoders in formats/ produce sources, combinators in
// audio/ transform them, mixer.Mixer sums any number of them, sink.Sink
// queues them for gapless playback and device.Output hands the result to a
// sound card.
//
// # Decoding
//
// The decoder package detects the container from its first bytes:
//
//	src, err := decoder.Open("song.flac")
//
// Supported formats are WAV, FLAC, Ogg Vorbis, AIFF and MP3.
//
// # Playback
//
//	m, _ := mixer.New(2, 48000)
//	s, _ := sink.Connect(m)
//	_ = s.Append(src)
//
//	out, _ := device.Open(malgo.New(), m, device.Config{})
//	defer out.Close()
//	s.SleepUntilEnd()
//
// # Offline conversion
//
// This package offers shortcuts for one-off conversions that need no
// device:
//
//	pcm16, rate, err := audpipe.ResampleToMono16(src, 8000, 4096)
//	err = audpipe.ConvertFile("in.mp3", "out.wav", 1, 16000)
package audpipe
