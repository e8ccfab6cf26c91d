// Package daemon hosts the long-running facecast process: it enforces
// single-instance execution with a lock file, owns the job store and the
// workflow orchestrator, and serves the HTTP API the CLI talks to.
package daemon
