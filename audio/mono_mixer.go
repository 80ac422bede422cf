// SPDX-License-Identifier: EPL-2.0

package audio

// NewMonoMixer converts multi-channel audio to mono by averaging all channels.
func NewMonoMixer(src Source) *ChannelConverter {
	return NewChannelConverter(src, 1)
}

// Convert normalizes src to channels and rate. Channel conversion runs
// first so the resampler always sees a stable channel count.
//
// Both stages are always inserted, even when src matches today: a decoder
// may switch format between spans and both stages pass matching audio
// through unchanged.
func Convert(src Source, channels, rate int) (Source, error) {
	if channels <= 0 || rate <= 0 {
		return nil, ErrInvalidFormat
	}
	if c, ok := src.(*Resampler); ok && c.dstRate == rate && c.channels == channels {
		if _, ok := c.src.(*ChannelConverter); ok {
			return src, nil
		}
	}

	return NewResampler(NewChannelConverter(src, channels), rate), nil
}
