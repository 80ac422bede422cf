// SPDX-License-Identifier: EPL-2.0

package device

import "fmt"

// DefaultFramesPerBuffer is used when a Config leaves FramesPerBuffer unset.
const DefaultFramesPerBuffer = 1024

// Config describes a device stream. Zero fields in a requested Config are
// filled in during negotiation.
type Config struct {
	Channels        int
	SampleRate      int
	Format          SampleFormat
	FramesPerBuffer int
}

// FrameSize is the size of one interleaved frame in bytes.
func (c Config) FrameSize() int { return c.Channels * c.Format.Width() }

func (c Config) String() string {
	return fmt.Sprintf("%d ch @ %d Hz %s", c.Channels, c.SampleRate, c.Format)
}

// Validate reports whether c is complete and playable.
func (c Config) Validate() error {
	switch {
	case c.Channels <= 0:
		return fmt.Errorf("%w: channels must be positive, got %d", ErrInvalidConfig, c.Channels)
	case c.SampleRate <= 0:
		return fmt.Errorf("%w: sample rate must be positive, got %d", ErrInvalidConfig, c.SampleRate)
	case c.Format.Width() == 0:
		return fmt.Errorf("%w: %v", ErrInvalidConfig, c.Format)
	case c.FramesPerBuffer < 0:
		return fmt.Errorf("%w: frames per buffer must not be negative, got %d", ErrInvalidConfig, c.FramesPerBuffer)
	}
	return nil
}

// withDefaults fills unset fields of c from the source format.
func (c Config) withDefaults(channels, rate int) Config {
	if c.Channels == 0 {
		c.Channels = channels
	}
	if c.SampleRate == 0 {
		c.SampleRate = rate
	}
	if c.Format == 0 {
		c.Format = FormatFloat32LE
	}
	if c.FramesPerBuffer == 0 {
		c.FramesPerBuffer = DefaultFramesPerBuffer
	}
	return c
}
