// Package services defines shared utilities consumed by the conversion stages
// and the external tool wrappers.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, job sources, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper that let the batch runner
//     separate fatal configuration problems from per-job failures.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
