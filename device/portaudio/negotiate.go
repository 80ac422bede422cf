// SPDX-License-Identifier: EPL-2.0

package portaudio

import "github.com/ik5/audpipe/device"

// negotiate keeps channels and rate and switches the stream to float32.
func negotiate(want device.Config) (device.Config, bool) {
	if want.Validate() != nil {
		return device.Config{}, false
	}
	want.Format = device.FormatFloat32LE
	return want, true
}
