// SPDX-License-Identifier: EPL-2.0

// Package decoder selects a format decoder for a byte stream.
//
// Default builds a registry of every built-in format. A Dispatcher sniffs the
// first bytes of the input, tries the formats whose signature matches in
// priority order, then the fallback formats, rewinding the input between
// attempts:
//
//	src, err := decoder.Open("song.flac")
//	if errors.Is(err, audio.ErrUnrecognizedFormat) {
//	    // nothing could read it
//	}
//
// Inputs that are not io.ReadSeeker are buffered in memory first. OpenURL
// streams remote files with HTTP range requests instead.
package decoder
