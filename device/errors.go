// SPDX-License-Identifier: EPL-2.0

package device

import (
	"errors"
	"fmt"
)

var (
	// ErrDeviceUnavailable is returned when a backend cannot open a device.
	ErrDeviceUnavailable = errors.New("audio device unavailable")

	// ErrFormatNegotiationFailed is returned when a backend supports
	// nothing close to the requested configuration.
	ErrFormatNegotiationFailed = errors.New("format negotiation failed")

	// ErrInvalidConfig is returned for a configuration no backend can play.
	ErrInvalidConfig = errors.New("invalid device configuration")

	// ErrUnknownSampleFormat is returned by ParseSampleFormat.
	ErrUnknownSampleFormat = errors.New("unknown sample format")

	// ErrStreamNotRunning is returned when pulling from a manual stream that
	// was not started or was already closed.
	ErrStreamNotRunning = errors.New("stream not running")
)

// StreamError reports a failure of a named backend. Err wraps one of the
// sentinels above.
type StreamError struct {
	Backend string
	Err     error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// Unavailable wraps a backend failure as ErrDeviceUnavailable.
func Unavailable(backend string, err error) error {
	if err == nil {
		return &StreamError{Backend: backend, Err: ErrDeviceUnavailable}
	}
	return &StreamError{Backend: backend, Err: fmt.Errorf("%w: %w", ErrDeviceUnavailable, err)}
}
