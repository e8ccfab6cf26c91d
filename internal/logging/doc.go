// Package logging centralizes slog construction and the structured field
// vocabulary shared across the daemon, orchestrator, and CLI.
//
// Loggers are built from config (level, format, output paths) and support a
// JSON handler for machine consumption plus a console handler for humans.
// Context helpers stamp job IDs, stage names, and correlation identifiers so
// every log line emitted while a workflow job is in flight can be traced back
// to it.
package logging
