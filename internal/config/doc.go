// Package config loads, normalizes, and validates dir2opus configuration.
//
// Configuration is TOML. Load merges a file (when present) over Default,
// expands "~" paths, fills per-format decoder defaults, and validates the
// result so callers receive a snapshot that is safe to hand to the converter
// without further checks. Decoder identifiers are validated against the fixed
// decoder catalog; an unknown or incompatible decoder is a configuration
// error that stops the run before any job starts.
package config
