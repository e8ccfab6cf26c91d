// Package workflow drives jobs through the two-stage generation pipeline:
// text-to-speech, then lip-sync.
//
// StartWorkflow creates the job record and returns immediately; a dedicated
// goroutine per job runs the stages sequentially and persists every
// transition through the job store before the next stage begins. Stages are
// fail-fast: the first error moves the job to its terminal error state and
// nothing further runs. Progress advances through fixed checkpoints
// (10/50/60/100) rather than measured sub-progress.
//
// The orchestrator retains a cancel function per in-flight job so jobs can
// be aborted individually and so shutdown can stop everything and wait.
package workflow
