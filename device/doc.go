// SPDX-License-Identifier: EPL-2.0

// Package device connects an audio.Source to an output device.
//
// A Backend wraps one audio API. Open negotiates a Config with it, inserts
// conversion when the device runs at a different channel count or rate than
// the source, and starts the stream. The backend then pulls audio through
// Output.Fill from its own thread; short reads are padded with silence and
// counted as underruns.
//
// Backends live in subpackages (malgo, oto, portaudio). Manual, in this
// package, plays nothing by itself and hands buffers out through Pull:
//
//	b := device.NewManual(device.FormatInt16LE)
//	out, _ := device.Open(b, src, device.Config{SampleRate: 44100})
//	defer out.Close()
//	buf := make([]byte, 1024*out.Config().FrameSize())
//	frames, _ := b.Pull(buf)
//
// Close stops the stream before it closes the source, so a source is never
// closed while a callback still reads from it.
package device
