package audio

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Format identifies a source audio container by its canonical short name.
type Format string

const (
	FormatMP3     Format = "mp3"
	FormatM4A     Format = "m4a"
	FormatFLAC    Format = "flac"
	FormatOgg     Format = "ogg"
	FormatAPE     Format = "ape"
	FormatMPC     Format = "mpc"
	FormatWavPack Format = "wv"
	FormatWMA     Format = "wma"
	FormatWAV     Format = "wav"
)

var extensionFormats = map[string]Format{
	".mp3":  FormatMP3,
	".m4a":  FormatM4A,
	".mp4":  FormatM4A,
	".flac": FormatFLAC,
	".ogg":  FormatOgg,
	".oga":  FormatOgg,
	".ape":  FormatAPE,
	".mpc":  FormatMPC,
	".mp+":  FormatMPC,
	".wv":   FormatWavPack,
	".wma":  FormatWMA,
	".wav":  FormatWAV,
}

// Formats returns every supported source format in a stable order.
func Formats() []Format {
	seen := make(map[Format]struct{}, len(extensionFormats))
	out := make([]Format, 0, len(extensionFormats))
	for _, f := range extensionFormats {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Detect maps a file path to its source format using the file extension.
func Detect(path string) (Format, bool) {
	f, ok := extensionFormats[strings.ToLower(filepath.Ext(path))]
	return f, ok
}

// ParseFormat validates a user supplied format name such as "mp3" or "WV".
func ParseFormat(value string) (Format, error) {
	candidate := Format(strings.ToLower(strings.TrimSpace(value)))
	for _, f := range extensionFormats {
		if f == candidate {
			return f, nil
		}
	}
	return "", fmt.Errorf("unsupported audio format %q", value)
}

// NeedsConversion reports whether a decoder must run before opusenc can read
// the source. opusenc reads WAV directly.
func (f Format) NeedsConversion() bool {
	return f != FormatWAV
}

func (f Format) String() string {
	return string(f)
}
