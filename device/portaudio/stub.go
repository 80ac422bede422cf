// SPDX-License-Identifier: EPL-2.0

//go:build !portaudio

package portaudio

import (
	"errors"
	"log/slog"

	"github.com/ik5/audpipe/device"
)

var errNotBuilt = errors.New("built without the portaudio tag")

// Backend is a placeholder that never opens a device.
type Backend struct{}

type Option func(*Backend)

func WithLogger(*slog.Logger) Option { return func(*Backend) {} }

func New(...Option) *Backend { return &Backend{} }

func (b *Backend) Name() string { return name }

func (b *Backend) Supports(want device.Config) (device.Config, bool) { return negotiate(want) }

func (b *Backend) Open(device.Config, device.FillFunc) (device.Stream, error) {
	return nil, device.Unavailable(name, errNotBuilt)
}
