package tags

import "sort"

// Mapping is a canonical tag key to ordered value list. Keys are always
// members of the accepted set.
type Mapping map[string][]string

// Add appends values under key, skipping empty strings and values already
// present. Keys outside the accepted set are ignored and Add reports false.
func (m Mapping) Add(key string, values ...string) bool {
	if !Accepted(key) {
		return false
	}
	existing := m[key]
	for _, value := range values {
		if value == "" || contains(existing, value) {
			continue
		}
		existing = append(existing, value)
	}
	if len(existing) > 0 {
		m[key] = existing
	}
	return true
}

// Keys returns the mapping's keys in sorted order.
func (m Mapping) Keys() []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// First returns the first value stored for key.
func (m Mapping) First(key string) string {
	if values := m[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

// Clone returns a deep copy.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for key, values := range m {
		out[key] = append([]string(nil), values...)
	}
	return out
}

func contains(values []string, candidate string) bool {
	for _, v := range values {
		if v == candidate {
			return true
		}
	}
	return false
}

var accepted = map[string]struct{}{}

func init() {
	for _, key := range []string{
		"album", "albumartist", "albumartistsort", "albumsort", "arranger",
		"artist", "artistsort", "asin", "author", "barcode", "bpm",
		"catalognumber", "comment", "compilation", "composer", "composersort",
		"conductor", "copyright", "date", "discnumber", "discsubtitle",
		"encodedby", "genre", "isrc", "language", "length", "lyricist",
		"media", "mood", "organization", "originaldate", "performer",
		"releasecountry", "title", "titlesort", "tracknumber", "version",
		"website",
		"musicbrainz_albumartistid", "musicbrainz_albumid",
		"musicbrainz_albumstatus", "musicbrainz_albumtype",
		"musicbrainz_artistid", "musicbrainz_discid", "musicbrainz_trackid",
		"musicbrainz_trmid", "musicip_fingerprint", "musicip_puid",
	} {
		accepted[key] = struct{}{}
	}
}

// Accepted reports whether key belongs to the canonical key set.
func Accepted(key string) bool {
	_, ok := accepted[key]
	return ok
}

// AcceptedKeys returns the canonical key set in sorted order.
func AcceptedKeys() []string {
	keys := make([]string, 0, len(accepted))
	for key := range accepted {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
