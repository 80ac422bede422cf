// SPDX-License-Identifier: EPL-2.0

package sink

import "errors"

var (
	// ErrSinkStopped is returned when queueing into a stopped sink.
	ErrSinkStopped = errors.New("sink stopped")

	// ErrSinkDetached is returned when queueing into a detached sink.
	ErrSinkDetached = errors.New("sink detached")

	// ErrQueueEmpty is wrapped, next to audio.ErrSeekNotSupported, in the
	// *audio.SeekError returned by TrySeek when nothing is queued.
	ErrQueueEmpty = errors.New("sink queue is empty")
)
