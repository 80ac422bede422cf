// SPDX-License-Identifier: EPL-2.0

// Package portaudio plays through github.com/gordonklaus/portaudio.
//
// The binding needs the PortAudio C library and is only compiled with the
// portaudio build tag:
//
//	go build -tags portaudio ./...
//
// Without the tag the Backend reports device.ErrDeviceUnavailable.
// Streams always run float32 samples; device.Open converts to it.
package portaudio

const name = "portaudio"
