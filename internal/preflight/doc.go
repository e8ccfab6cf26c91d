// Package preflight provides readiness checks for the vendor APIs and
// filesystem paths the daemon depends on.
//
// The daemon runs RunAll at startup to surface misconfiguration before the
// first job arrives; the CLI status command reuses the individual checks to
// display service health.
package preflight
