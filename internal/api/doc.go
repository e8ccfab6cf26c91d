// Package api defines the transport-facing representations of jobs and
// workflow status, plus the submission contract with its synchronous
// validation. Handlers and the CLI share these types so both surfaces render
// identical payloads.
package api
