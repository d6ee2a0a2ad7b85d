// Package logging assembles structured slog loggers and formatting helpers used
// across dir2opus.
//
// It owns the console and JSON handlers and splits output by level: DEBUG and
// INFO lines go to stdout while WARN and ERROR go to stderr, with an optional
// per-run log file receiving everything. Context helpers tag lines with the
// run ID, the job's source file, and the pipeline stage so warnings about a
// single file can be traced through decode, encode, and tagging.
package logging
