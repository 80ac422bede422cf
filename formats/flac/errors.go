// SPDX-License-Identifier: EPL-2.0

package flac

import "errors"

var (
	// ErrNotFlacFile indicates the stream marker or STREAMINFO block is missing
	ErrNotFlacFile = errors.New("not a FLAC stream")

	// ErrUnsupportedBitDepth indicates a sample size above 32 bits or zero
	ErrUnsupportedBitDepth = errors.New("unsupported FLAC bit depth")
)
