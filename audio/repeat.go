// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"
	"time"
)

// Repeater loops a seekable source forever.
type Repeater struct {
	src      Source
	seeker   Seeker
	produced bool // current loop yielded at least one sample
}

// Repeat rewinds src and wraps it so it restarts from the beginning when
// exhausted. src must be able to seek to zero: wrappers that implement
// Seeker over an unseekable source fail here, not at the first wrap. The
// error is a *SeekError.
func Repeat(src Source) (*Repeater, error) {
	seeker, ok := src.(Seeker)
	if !ok {
		return nil, &SeekError{Pos: 0, Err: ErrSeekNotSupported}
	}
	if err := seeker.Seek(0); err != nil {
		return nil, err
	}
	return &Repeater{src: src, seeker: seeker}, nil
}

func (r *Repeater) SampleRate() int { return r.src.SampleRate() }
func (r *Repeater) Channels() int   { return r.src.Channels() }
func (r *Repeater) Close() error {
	err := r.src.Close()
	if err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

func (r *Repeater) ReadSamples(dst []float32) (int, error) {
	for {
		n, err := r.src.ReadSamples(dst)
		if n > 0 {
			r.produced = true
		}
		if err != io.EOF {
			return n, err
		}

		// An empty loop would spin forever.
		if !r.produced {
			return n, io.EOF
		}
		if err := r.seeker.Seek(0); err != nil {
			return n, err
		}
		r.produced = false
		if n > 0 {
			return n, nil
		}
	}
}

func (r *Repeater) Seek(pos time.Duration) error {
	if err := r.seeker.Seek(pos); err != nil {
		return err
	}
	r.produced = false
	return nil
}
