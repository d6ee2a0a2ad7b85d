// Package audio identifies the source formats dir2opus converts.
//
// Formats are detected from the file extension only; content sniffing is left
// to the decoders. WAV is special: opusenc reads it directly, so it never
// passes through a decoder and never gets an intermediate file.
package audio
