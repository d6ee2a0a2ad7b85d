// Package convert drives conversion jobs through the pipeline.
//
// A Job is one source file on its way to a sibling .opus file. The Runner
// takes jobs one at a time through tag extraction, decoding, encoding and tag
// writing, moving each through a fixed state machine. Failures are contained
// at the job boundary: a job that fails ends in a *_FAILED state with a
// warning, and the run moves on to the next job.
//
// Every job carries its own Options snapshot taken when the job is built, so
// per-format overrides never leak between jobs.
package convert
