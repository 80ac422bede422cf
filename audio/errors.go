// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDstSize = errors.New("dst size must be multiple of channels")
	ErrInvalidFormat  = errors.New("channels and sample rate must be positive")

	ErrUnrecognizedFormat = errors.New("unrecognized audio format")
	ErrCorruptStream      = errors.New("corrupt audio stream")

	ErrSeekNotSupported = errors.New("seek not supported")
	ErrSeekOutOfRange   = errors.New("seek position out of range")
	ErrSeekBackend      = errors.New("seek failed in decoder")

	ErrPrefetchClosed = errors.New("prefetch closed")
)

// SeekError is returned when a source cannot move to Pos.
// Err is ErrSeekNotSupported, ErrSeekOutOfRange or wraps ErrSeekBackend.
// Sources of known length reject positions past their end with
// ErrSeekOutOfRange; the end itself is a valid position.
type SeekError struct {
	Pos time.Duration
	Err error
}

func (e *SeekError) Error() string {
	return fmt.Sprintf("seek to %s: %v", e.Pos, e.Err)
}

func (e *SeekError) Unwrap() error { return e.Err }

// BackendSeekError wraps an error reported by a decoder while seeking.
func BackendSeekError(pos time.Duration, err error) error {
	return &SeekError{Pos: pos, Err: fmt.Errorf("%w: %w", ErrSeekBackend, err)}
}

// DecodeError reports a failure to decode Format.
// Err wraps ErrUnrecognizedFormat or ErrCorruptStream.
type DecodeError struct {
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return "decode: " + e.Err.Error()
	}
	return "decode " + e.Format + ": " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error { return e.Err }

// CorruptStream wraps a mid-stream decoder failure.
func CorruptStream(format string, err error) error {
	return &DecodeError{Format: format, Err: fmt.Errorf("%w: %w", ErrCorruptStream, err)}
}
