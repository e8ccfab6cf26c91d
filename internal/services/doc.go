// Package services defines shared utilities consumed by the workflow
// orchestrator and the vendor API clients.
//
// Key responsibilities:
//   - Context helpers that stamp workflow job IDs, stage names, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper that keep failure
//     classification (validation vs vendor vs timeout) consistent across
//     stages, and the Details accessor the orchestrator uses to surface a
//     clean message on the job record.
//
// Use these helpers when wiring new stage logic so operational behaviour
// stays uniform across the pipeline.
package services
