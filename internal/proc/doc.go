// Package proc classifies the exit of external decoder and encoder processes.
//
// Both pipeline stages need the same three-way answer from a finished
// process: it succeeded, it exited with a nonzero status, or it was killed by
// a signal. Outcome carries that answer together with the details needed for
// a useful warning, and Tail keeps the last bytes of a process's stderr so the
// warning can show what the tool complained about.
package proc
