package tags

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"dir2opus/internal/logging"
	"dir2opus/internal/media/audio"
)

// Raw is one key/value pair as read from a source tag container. Value holds
// a string, []string, an integer, or a byte slice.
type Raw struct {
	Key   string
	Value any
}

type reader func(path string) ([]Raw, error)

type family struct {
	name  string
	read  reader
	table map[string]string
}

var (
	id3Family    = family{name: "id3v2", read: readID3, table: id3Table}
	mp4Family    = family{name: "mp4", read: readMP4, table: mp4Table}
	vorbisFamily = family{name: "vorbis", read: readVorbis, table: vorbisTable}
	apeFamily    = family{name: "apev2", read: readTagLib, table: taglibTable}
	asfFamily    = family{name: "asf", read: readTagLib, table: taglibTable}
)

var families = map[audio.Format]family{
	audio.FormatMP3:     id3Family,
	audio.FormatM4A:     mp4Family,
	audio.FormatFLAC:    vorbisFamily,
	audio.FormatOgg:     vorbisFamily,
	audio.FormatAPE:     apeFamily,
	audio.FormatMPC:     apeFamily,
	audio.FormatWavPack: apeFamily,
	audio.FormatWMA:     asfFamily,
}

// Family returns the tag family name used for a format, or "" when the
// format carries no tags dir2opus reads.
func Family(f audio.Format) string {
	return families[f].name
}

// Extractor reads and canonicalizes source tags.
type Extractor struct {
	logger *slog.Logger
}

// NewExtractor constructs an Extractor that reports warnings to logger.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logging.NewComponentLogger(logger, "tags")}
}

// Extract returns the canonical tag mapping for path. It never fails: reader
// errors are logged and yield an empty Mapping.
func (e *Extractor) Extract(ctx context.Context, path string, f audio.Format) Mapping {
	logger := logging.WithContext(ctx, e.logger)
	fam, ok := families[f]
	if !ok {
		return Mapping{}
	}
	raw, err := fam.read(path)
	if err != nil {
		logging.WarnWithContext(logger, "tag extraction skipped", "tag_extract_failed",
			logging.String("family", fam.name),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "the file's tag block could not be parsed"),
			logging.String(logging.FieldImpact, "output will carry no tags from this source"),
		)
		return Mapping{}
	}
	mapping, repaired := translate(fam.table, raw)
	for _, key := range repaired {
		logging.WarnWithContext(logger, "tag value was not valid UTF-8; invalid bytes removed", "tag_invalid_utf8",
			logging.String("key", key),
			logging.String(logging.FieldImpact, "tag text may be incomplete"),
		)
	}
	logger.Debug("tags extracted",
		logging.String("family", fam.name),
		logging.Int("raw", len(raw)),
		logging.Int("kept", len(mapping)),
	)
	return mapping
}

// Translate canonicalizes raw pairs using the table of the format's family.
// Unknown formats yield an empty Mapping.
func Translate(f audio.Format, raw []Raw) Mapping {
	fam, ok := families[f]
	if !ok {
		return Mapping{}
	}
	mapping, _ := translate(fam.table, raw)
	return mapping
}

// translate returns the mapping plus the canonical keys whose values needed
// UTF-8 repair.
func translate(table map[string]string, raw []Raw) (Mapping, []string) {
	mapping := Mapping{}
	var repaired []string
	for _, pair := range raw {
		key := canonicalKey(table, pair.Key)
		if !Accepted(key) {
			continue
		}
		values, ok := coerce(pair.Value)
		if !ok {
			continue
		}
		fixed := false
		for i, v := range values {
			if !utf8.ValidString(v) {
				values[i] = strings.ToValidUTF8(v, "")
				fixed = true
			}
			values[i] = strings.Trim(values[i], "\x00")
		}
		if fixed && !contains(repaired, key) {
			repaired = append(repaired, key)
		}
		mapping.Add(key, values...)
	}
	return mapping, repaired
}

func canonicalKey(table map[string]string, rawKey string) string {
	lowered := lowerASCII(strings.TrimSpace(rawKey))
	if key, ok := table[lowered]; ok {
		return key
	}
	return lowered
}

// lowerASCII lower-cases only ASCII letters. MP4 atom names carry a raw 0xA9
// byte that strings.ToLower would replace with U+FFFD.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func coerce(value any) ([]string, bool) {
	switch v := value.(type) {
	case string:
		return []string{v}, true
	case []string:
		return append([]string(nil), v...), true
	case []byte:
		return []string{string(v)}, true
	case int:
		return []string{strconv.Itoa(v)}, true
	case int64:
		return []string{strconv.FormatInt(v, 10)}, true
	case uint32:
		return []string{strconv.FormatUint(uint64(v), 10)}, true
	case uint64:
		return []string{strconv.FormatUint(v, 10)}, true
	case bool:
		if v {
			return []string{"1"}, true
		}
		return []string{"0"}, true
	case fmt.Stringer:
		return []string{v.String()}, true
	default:
		return nil, false
	}
}
