// SPDX-License-Identifier: EPL-2.0

// Package audio provides low-level audio processing primitives.
//
// This package contains the core audio processing building blocks:
//   - Source interface for audio input, plus the optional Seeker,
//     Durationer and Positioner capabilities
//   - Resampler for sample rate conversion
//   - ChannelConverter (and NewMonoMixer) for channel mapping
//   - Convert, which combines both to reach a fixed output format
//   - Amplify, Speed, TakeDuration, SkipDuration, Delay, PeriodicAccess
//     and Repeat wrappers
//   - Empty, Zero, Silence and FromSamples sources
//   - Prefetch, which decodes ahead on a background goroutine
//   - Format registry for decoder registration
//
// # Source Interface
//
// The Source interface is the foundation of audio processing:
//
//	type Source interface {
//	    SampleRate() int
//	    Channels() int
//	    ReadSamples(dst []float32) (int, error)
//	    Close() error
//	}
//
// SampleRate and Channels describe the samples the next ReadSamples call
// returns. A source may change them between calls (a span boundary) but a
// single call never mixes two formats.
//
// # Resampling
//
// The Resampler changes the sample rate of audio using cubic interpolation:
//
//	resampler := audio.NewResampler(source, 16000)
//	buf := make([]float32, 4096)
//	n, err := resampler.ReadSamples(buf)
//
// When source and target rates are equal the samples pass through exactly.
// The source rate is re-read on every refill so rate changes are followed.
//
// # Channel Mapping
//
// The ChannelConverter maps any channel count to any other:
//
//	stereo := audio.NewChannelConverter(source, 2)
//	mono := audio.NewMonoMixer(source)
//
// Upmixing repeats the input channels in order, downmixing averages every
// input channel into the output channel it folds onto.
//
// # Format Registry
//
// The registry keeps decoders in priority order together with a magic-byte
// sniffer:
//
//	registry := audio.NewRegistry()
//	registry.Register(audio.Format{Name: "wav", Magic: wav.Magic, Decoder: wav.Decoder{}})
//	decoder, _ := registry.Get("wav")
//
// The decoder package builds the default registry and dispatches on it.
//
// # Sample Format
//
// Audio samples are represented as float32 in the range [-1.0, 1.0]:
//   - 0.0 represents silence
//   - 1.0 represents maximum positive amplitude
//   - -1.0 represents maximum negative amplitude
//
// This normalized format makes it easy to process audio without worrying
// about bit depths and ensures no clipping during intermediate processing.
//
// # Performance Considerations
//
// The audio processing functions are optimized for performance:
//   - Minimal allocations (often zero after warmup)
//   - Efficient buffer management
//   - SIMD-friendly algorithms where possible
//
// For best performance:
//   - Reuse buffers when possible
//   - Use appropriate buffer sizes (4096 is a good default)
//   - Process audio in streaming fashion rather than loading all in memory
//
// # Error Handling
//
// Audio processing functions return io.EOF when no more data is available.
// Other errors indicate problems with the source or processing:
//
//	for {
//	    n, err := source.ReadSamples(buf)
//	    // Process n samples from buf; n can be > 0 together with io.EOF
//	    if err == io.EOF {
//	        break // Normal end of stream
//	    }
//	    if err != nil {
//	        return err // Processing error
//	    }
//	}
//
// Errors are typed so callers can branch with errors.Is and errors.As:
// *SeekError wraps ErrSeekNotSupported, ErrSeekOutOfRange or ErrSeekBackend,
// and *DecodeError wraps ErrUnrecognizedFormat or ErrCorruptStream.
package audio
