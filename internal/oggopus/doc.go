// Package oggopus reads and rewrites the comment header of an Ogg Opus file
// through TagLib.
//
// WriteTags edits a copy of the file next to the original and renames it into
// place once TagLib has saved it, so a failure never leaves a half-written
// file behind. Failures are reported as *TagWriteError values whose Kind tells
// an unreadable file apart from a damaged stream or a failed save.
package oggopus
