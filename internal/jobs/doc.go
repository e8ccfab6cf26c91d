// Package jobs holds the workflow job record, its status enum, and the job
// store backends.
//
// A Job is the aggregate the orchestrator drives through the two-stage
// pipeline. The store is the single piece of shared mutable state in the
// system: every mutation goes through Store.Update, which applies the full
// set of field changes for a transition atomically, and every read returns a
// deep-copied snapshot so callers can never observe or cause a torn record.
//
// Two backends exist: the in-memory store (default, process lifetime only)
// and a SQLite-backed store for deployments that need jobs to survive a
// daemon restart. Both enforce identical semantics; the orchestrator does
// not know which one it holds.
package jobs
