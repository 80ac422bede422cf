// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"sync"
)

// Format describes one decodable container/codec.
type Format struct {
	// Name is the registry key (e.g., "wav", "mp3", "ogg vorbis").
	Name string
	// Magic reports whether header looks like this format. A nil Magic means
	// the format has no reliable signature and is only tried as a fallback.
	Magic func(header []byte) bool
	// Fallback formats are also tried, in order, when no Magic matched.
	Fallback bool
	Decoder  Decoder
}

// Registry for decoders, kept in registration (priority) order.
type Registry struct {
	formats []Format

	mtx *sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{
		mtx: &sync.RWMutex{},
	}
}

// Register adds f, replacing any format already registered under f.Name
// while keeping its original priority.
func (r *Registry) Register(f Format) {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for i := range r.formats {
		if r.formats[i].Name == f.Name {
			r.formats[i] = f
			return
		}
	}
	r.formats = append(r.formats, f)
}

func (r *Registry) Get(name string) (Decoder, bool) {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	for _, f := range r.formats {
		if f.Name == name {
			return f.Decoder, true
		}
	}
	return nil, false
}

// Formats returns a snapshot of the registered formats in priority order.
func (r *Registry) Formats() []Format {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	out := make([]Format, len(r.formats))
	copy(out, r.formats)
	return out
}
