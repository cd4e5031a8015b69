// Package errs defines the error taxonomy shared by the query helpers, the
// generation client and the HTTP handlers. Callers wrap these sentinels with
// fmt.Errorf("...: %w", ...) and handlers map them to status codes.
package errs

import "errors"

var (
	// ErrValidation marks missing or malformed request fields (4xx).
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks an absent referenced entity (404).
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable marks an unreachable or empty-handed external
	// generation collaborator (502).
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrConfiguration marks missing credentials for an external service.
	ErrConfiguration = errors.New("configuration error")

	// ErrPersistence marks a storage read or write failure.
	ErrPersistence = errors.New("persistence error")

	// ErrConflict marks a rejected state transition, e.g. a second render
	// trigger while the latest animation is already past pending.
	ErrConflict = errors.New("conflicting state")
)
