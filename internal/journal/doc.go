// Package journal persists the outcome of every conversion job in a SQLite
// database so past runs can be listed with `dir2opus history`.
//
// The journal is append-only. Each row describes one job: the source and
// output paths, the decoder and pipeline mode used, the terminal state and the
// error that produced it, plus the run identifier shared by all jobs of a
// single invocation.
package journal
