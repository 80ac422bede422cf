// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ik5/audpipe/audio"
	"github.com/jeffallen/seekinghttp"
)

// ErrEmptyRemote is returned by OpenURL when the server reports no content.
var ErrEmptyRemote = errors.New("remote resource is empty")

// owned ties the lifetime of an input to the source decoded from it.
type owned struct {
	audio.Source
	input io.Closer
}

func (o *owned) Close() error {
	return errors.Join(o.Source.Close(), o.input.Close())
}

func (o *owned) Seek(pos time.Duration) error { return audio.Seek(o.Source, pos) }

func (o *owned) TotalDuration() (time.Duration, bool) { return audio.TotalDuration(o.Source) }

func (o *owned) Position() time.Duration {
	pos, _ := audio.Position(o.Source)
	return pos
}

// Open decodes the file at path. Closing the source closes the file.
func (d *Dispatcher) Open(path string) (audio.Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	src, err := d.Decode(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &owned{Source: src, input: f}, nil
}

// Open decodes the file at path with the default registry.
func Open(path string) (audio.Source, error) {
	return New(nil).Open(path)
}

// OpenURL decodes a remote file using HTTP range requests, so seeking does
// not download the whole body. client may be nil.
func (d *Dispatcher) OpenURL(url string, client *http.Client) (audio.Source, error) {
	remote := seekinghttp.New(url)
	if client != nil {
		remote.Client = client
	}

	size, err := remote.Size()
	if err != nil {
		return nil, fmt.Errorf("probing %s: %w", url, err)
	}
	if size == 0 {
		return nil, ErrEmptyRemote
	}

	src, err := d.Decode(remote)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", url, err)
	}
	return src, nil
}
