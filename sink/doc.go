// SPDX-License-Identifier: EPL-2.0

// Package sink queues sources and plays them back to back through one
// output, with pause, volume, speed, skip and seek controls.
//
// A Sink is split in two halves. The controls (Append, Pause, SetVolume,
// TrySeek, Stop, ...) may be called from any goroutine. The output returned
// by Output is read by exactly one goroutine, usually a mixer or device
// callback, and never blocks on the controls: flags are atomics, new
// sources travel through a lock-free mailbox and when a control call holds
// the queue the output emits one chunk of silence instead of waiting.
// Finished sources are closed on the next control call, never on the
// reading goroutine.
//
//	m, _ := mixer.New(2, 48000)
//	s, _ := sink.Connect(m)
//	src, _ := decoder.Open("song.flac")
//	_ = s.Append(src)
//	s.SleepUntilEnd()
//
// Every appended source is converted to the sink format, so consecutive
// sources join without a gap even when their formats differ.
package sink
