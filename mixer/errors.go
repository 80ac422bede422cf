// SPDX-License-Identifier: EPL-2.0

package mixer

import "errors"

// ErrMixerClosed is returned by Add after Close.
var ErrMixerClosed = errors.New("mixer closed")
