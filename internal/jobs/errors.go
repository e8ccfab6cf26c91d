package jobs

import "errors"

// ErrNotFound is returned when no job exists for the given identifier.
var ErrNotFound = errors.New("job not found")

// ErrConflict is returned when creating a job whose identifier already
// exists. Identifiers are freshly generated UUIDs on the normal path, so
// this guards against externally supplied or deterministic IDs.
var ErrConflict = errors.New("job already exists")

// ErrInvalid is returned when a store operation receives a malformed job
// record, such as a nil job or an empty identifier.
var ErrInvalid = errors.New("invalid job record")
