// SPDX-License-Identifier: EPL-2.0

package decoder

import (
	"github.com/ik5/audpipe/audio"
	"github.com/ik5/audpipe/formats/aiff"
	"github.com/ik5/audpipe/formats/flac"
	"github.com/ik5/audpipe/formats/mp3"
	"github.com/ik5/audpipe/formats/vorbis"
	"github.com/ik5/audpipe/formats/wav"
)

// Format names used by Default.
const (
	FormatWAV    = "wav"
	FormatFLAC   = "flac"
	FormatVorbis = "vorbis"
	FormatAIFF   = "aiff"
	FormatMP3    = "mp3"
)

// Default returns a registry with every built-in format, in probe order.
// Container formats with a fixed signature come first; MP3 is last and is
// also tried without a signature match since raw MPEG streams carry none.
func Default() *audio.Registry {
	reg := audio.NewRegistry()
	reg.Register(audio.Format{Name: FormatWAV, Magic: wav.Magic, Decoder: wav.Decoder{}})
	reg.Register(audio.Format{Name: FormatFLAC, Magic: flac.Magic, Decoder: flac.Decoder{}})
	reg.Register(audio.Format{Name: FormatVorbis, Magic: vorbis.Magic, Decoder: vorbis.Decoder{}})
	reg.Register(audio.Format{Name: FormatAIFF, Magic: aiff.Magic, Decoder: aiff.Decoder{}})
	reg.Register(audio.Format{Name: FormatMP3, Magic: mp3.Magic, Fallback: true, Decoder: mp3.Decoder{}})
	return reg
}
