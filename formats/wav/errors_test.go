// SPDX-License-Identifier: EPL-2.0

package wav

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrors_Messages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		want string
	}{
		{ErrNotWavFile, "not a WAV file"},
		{ErrUnsupportedWavLayout, "unsupported WAV layout"},
		{ErrUnsupportedBitDepth, "unsupported WAV bit depth"},
		{ErrUnsupportedWavChunks, "unsupported WAV chunks"},
	}

	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
		}
	}
}

func TestErrors_Uniqueness(t *testing.T) {
	t.Parallel()

	errs := []error{ErrNotWavFile, ErrUnsupportedWavLayout, ErrUnsupportedBitDepth, ErrUnsupportedWavChunks}
	for i := range errs {
		for j := range errs {
			if i != j && errors.Is(errs[i], errs[j]) {
				t.Errorf("errors.Is(%v, %v) = true, want false", errs[i], errs[j])
			}
		}
	}
}

func TestErrors_Wrapping(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("opening file: %w", ErrNotWavFile)
	if !errors.Is(wrapped, ErrNotWavFile) {
		t.Error("errors.Is() failed for wrapped ErrNotWavFile")
	}
}
