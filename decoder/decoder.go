// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ik5/audpipe/audio"
)

// headerSize is enough for every built-in signature (RIFF....WAVE).
const headerSize = 12

// Dispatcher picks a decoder for a byte stream from a registry.
type Dispatcher struct {
	reg *audio.Registry
	log *slog.Logger
}

type Option func(*Dispatcher)

// WithLogger sets the logger used for probe diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// New returns a Dispatcher over reg. A nil reg means Default().
func New(reg *audio.Registry, opts ...Option) *Dispatcher {
	if reg == nil {
		reg = Default()
	}
	d := &Dispatcher{reg: reg, log: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With("component", "decoder")
	return d
}

// Decode sniffs r with the default registry and returns a source.
func Decode(r io.Reader) (audio.Source, error) {
	src, _, err := New(nil).DecodeFormat(r)
	return src, err
}

func (d *Dispatcher) Decode(r io.Reader) (audio.Source, error) {
	src, _, err := d.DecodeFormat(r)
	return src, err
}

// seekable returns r as an io.ReadSeeker positioned at offset 0.
// Other readers, or seekers not at the start, are read into memory.
func seekable(r io.Reader) (io.ReadSeeker, error) {
	if rs, ok := r.(io.ReadSeeker); ok {
		if pos, err := rs.Seek(0, io.SeekCurrent); err == nil && pos == 0 {
			return rs, nil
		}
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("buffering input: %w", err)
	}
	return bytes.NewReader(data), nil
}

func readHeader(rs io.ReadSeeker) ([]byte, error) {
	header := make([]byte, headerSize)
	n, err := io.ReadFull(rs, header)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("rewinding: %w", err)
	}
	return header[:n], nil
}

// DecodeFormat is Decode that also reports the name of the chosen format.
//
// Formats whose Magic matches the header are tried first in registry order,
// then fallback formats that were not tried yet. Input is rewound before
// each attempt. When nothing decodes the error is a *audio.DecodeError
// wrapping audio.ErrCorruptStream if some signature matched, or
// audio.ErrUnrecognizedFormat otherwise.
func (d *Dispatcher) DecodeFormat(r io.Reader) (audio.Source, string, error) {
	rs, err := seekable(r)
	if err != nil {
		return nil, "", err
	}
	header, err := readHeader(rs)
	if err != nil {
		return nil, "", err
	}

	formats := d.reg.Formats()
	tried := make(map[string]bool, len(formats))

	var (
		matched   string
		matchErr  error
		candidate []audio.Format
	)
	for _, f := range formats {
		if f.Magic != nil && f.Magic(header) {
			candidate = append(candidate, f)
		}
	}
	for _, f := range formats {
		if f.Fallback {
			candidate = append(candidate, f)
		}
	}

	for _, f := range candidate {
		if tried[f.Name] {
			continue
		}
		tried[f.Name] = true

		if _, err := rs.Seek(0, io.SeekStart); err != nil {
			return nil, "", fmt.Errorf("rewinding: %w", err)
		}
		src, err := f.Decoder.Decode(rs)
		if err == nil {
			d.log.Debug("format detected", slog.String("format", f.Name),
				slog.Int("channels", src.Channels()), slog.Int("sample_rate", src.SampleRate()))
			return src, f.Name, nil
		}

		d.log.Debug("decoder rejected input", slog.String("format", f.Name), slog.Any("error", err))
		if matched == "" && f.Magic != nil && f.Magic(header) {
			matched, matchErr = f.Name, err
		}
	}

	if matched != "" {
		return nil, "", audio.CorruptStream(matched, matchErr)
	}
	return nil, "", &audio.DecodeError{Err: audio.ErrUnrecognizedFormat}
}
