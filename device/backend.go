// SPDX-License-Identifier: EPL-2.0

package device

// FillFunc writes frames interleaved frames into buf in the stream's
// format. Backends call it from their audio thread.
type FillFunc func(buf []byte, frames int)

// Stream is an opened device. Stop must not return while a FillFunc call
// is still running.
type Stream interface {
	Start() error
	Stop() error
	Close() error
}

// Backend opens output streams on some audio API.
type Backend interface {
	Name() string

	// Supports returns the closest configuration the backend can open for
	// want, or false when there is none.
	Supports(want Config) (Config, bool)

	Open(cfg Config, fill FillFunc) (Stream, error)
}
