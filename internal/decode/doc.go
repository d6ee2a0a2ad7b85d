// Package decode turns a source audio file into PCM that opusenc can read.
//
// Depending on the source format, the selected decoder and the job options,
// the result is either a live pipe fed by a running decoder process (Stream)
// or a completed WAV file on disk (File). WAV sources pass through untouched.
package decode
