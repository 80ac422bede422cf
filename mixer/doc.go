// SPDX-License-Identifier: EPL-2.0

// Package mixer combines any number of audio sources into one stream.
//
// A Mixer is created for a fixed channel count and sample rate. Every source
// handed to Add is converted to that format with audio.Convert, so inputs of
// any shape can be mixed. Samples are summed and clamped to [-1, 1]; there
// is no automatic gain.
//
//	m, _ := mixer.New(2, 48000)
//	music, _ := m.Add(song)
//	m.Add(effect)
//	...
//	m.Remove(music)
//
// The Mixer is itself an audio.Source meant to be pulled by a single
// goroutine, usually a device callback. It never ends: with no inputs left it
// yields silence. Inputs that end or fail are dropped on their own; a failing
// input never disturbs the others.
//
// # Concurrency
//
// Add, Remove, Active and Len are safe from any goroutine. New inputs reach
// the reading side through a lock-free mailbox; removal is an atomic flag
// checked before each chunk. Sources are closed on the control side, never
// inside ReadSamples.
package mixer
