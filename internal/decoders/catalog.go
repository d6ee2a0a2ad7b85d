// Package decoders holds the fixed invocation contracts of the external
// decoder programs dir2opus can drive.
//
// Argument order and flags are part of the external contract: they must match
// what each tool expects so installations can swap tools without changes.
package decoders

import (
	"path/filepath"
	"sort"
	"strings"

	"dir2opus/internal/media/audio"
)

const (
	// pipeStdout is the output target used by decoders that refuse "-".
	pipeStdout = "/dev/stdout"
	// pipeDash is the conventional stdout target.
	pipeDash = "-"

	// MPlayerTempName is the file mplayer is always told to write, regardless
	// of the intermediate path the job asked for.
	MPlayerTempName = "dir2opus-mplayer.wav"
)

// Spec is the static description of one supported decoder program.
type Spec struct {
	ID      string
	Formats []audio.Format
	// Streams reports whether the decoder can write PCM continuously to a pipe.
	Streams bool
	// PipeTarget is the output argument that makes the decoder write to stdout.
	PipeTarget string
	// FixedOutput marks decoders that write to a fixed temp name which the
	// decode stage must rename after the process exits.
	FixedOutput bool

	args func(src, out string) []string
}

// Args returns the decoder arguments for the given source and output target.
func (s Spec) Args(src, out string) []string {
	return s.args(src, out)
}

// Supports reports whether the decoder can read the given format.
func (s Spec) Supports(f audio.Format) bool {
	for _, candidate := range s.Formats {
		if candidate == f {
			return true
		}
	}
	return false
}

// TempOutput returns the fixed file a FixedOutput decoder writes for src.
func (s Spec) TempOutput(src string) string {
	if !s.FixedOutput {
		return ""
	}
	return filepath.Join(filepath.Dir(src), MPlayerTempName)
}

var catalog = map[string]Spec{
	"mpg123": {
		ID:         "mpg123",
		Formats:    []audio.Format{audio.FormatMP3},
		Streams:    true,
		PipeTarget: pipeStdout,
		args: func(src, out string) []string {
			return []string{"-q", "-w", out, src}
		},
	},
	"mpg321": {
		ID:         "mpg321",
		Formats:    []audio.Format{audio.FormatMP3},
		Streams:    true,
		PipeTarget: pipeStdout,
		args: func(src, out string) []string {
			return []string{"-q", "-w", out, src}
		},
	},
	"faad": {
		ID:         "faad",
		Formats:    []audio.Format{audio.FormatM4A},
		Streams:    true,
		PipeTarget: pipeStdout,
		args: func(src, out string) []string {
			return []string{"-q", "-o", out, src}
		},
	},
	"flac": {
		ID:         "flac",
		Formats:    []audio.Format{audio.FormatFLAC},
		Streams:    true,
		PipeTarget: pipeStdout,
		args: func(src, out string) []string {
			return []string{"-s", "-o", out, "-d", src}
		},
	},
	"oggdec": {
		ID:         "oggdec",
		Formats:    []audio.Format{audio.FormatOgg},
		Streams:    true,
		PipeTarget: pipeStdout,
		args: func(src, out string) []string {
			return []string{"-Q", "-o", out, src}
		},
	},
	"lame": {
		ID:         "lame",
		Formats:    []audio.Format{audio.FormatMP3},
		Streams:    true,
		PipeTarget: pipeDash,
		args: func(src, out string) []string {
			return []string{"--quiet", "--decode", src, out}
		},
	},
	"mac": {
		ID:      "mac",
		Formats: []audio.Format{audio.FormatAPE},
		args: func(src, out string) []string {
			return []string{src, out, "-d"}
		},
	},
	"mpcdec": {
		ID:         "mpcdec",
		Formats:    []audio.Format{audio.FormatMPC},
		Streams:    true,
		PipeTarget: pipeDash,
		args: func(src, out string) []string {
			return []string{src, out}
		},
	},
	"wvunpack": {
		ID:         "wvunpack",
		Formats:    []audio.Format{audio.FormatWavPack},
		Streams:    true,
		PipeTarget: pipeDash,
		args: func(src, out string) []string {
			return []string{"-q", src, "-o", out}
		},
	},
	"mplayer": {
		ID: "mplayer",
		Formats: []audio.Format{
			audio.FormatMP3, audio.FormatM4A, audio.FormatFLAC, audio.FormatOgg,
			audio.FormatAPE, audio.FormatMPC, audio.FormatWavPack, audio.FormatWMA,
		},
		FixedOutput: true,
		args: func(src, out string) []string {
			return []string{
				"-really-quiet", "-vo", "null", "-vc", "dummy",
				"-af", "resample=44100", "-ao", "pcm:file=" + out, src,
			}
		},
	},
}

var defaults = map[audio.Format]string{
	audio.FormatMP3:     "mpg123",
	audio.FormatM4A:     "faad",
	audio.FormatFLAC:    "flac",
	audio.FormatOgg:     "oggdec",
	audio.FormatAPE:     "mac",
	audio.FormatMPC:     "mpcdec",
	audio.FormatWavPack: "wvunpack",
	audio.FormatWMA:     "mplayer",
}

// Lookup returns the decoder registered under id. Identifiers are matched
// case-insensitively.
func Lookup(id string) (Spec, bool) {
	spec, ok := catalog[strings.ToLower(strings.TrimSpace(id))]
	return spec, ok
}

// Default returns the decoder used for a format when none is configured.
// WAV sources have no decoder.
func Default(f audio.Format) string {
	return defaults[f]
}

// IDs returns all supported decoder identifiers in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(catalog))
	for id := range catalog {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
