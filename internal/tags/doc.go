// Package tags reads the metadata of a source audio file and normalizes it
// into one canonical key vocabulary.
//
// Every source format belongs to a tag family (ID3v2, MP4 atoms, Vorbis
// comments, APEv2, ASF). Each family pairs a reader with a static translation
// table from raw keys to canonical keys; APEv2 and ASF are read through
// TagLib and share one table over its property names. Keys the table does not
// know fall back to their lower-cased raw spelling, and anything outside the
// accepted set is dropped. Extraction never fails a conversion: reader errors
// produce a warning and an empty Mapping.
package tags
