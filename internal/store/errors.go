package store

import "errors"

var (
	// ErrUnavailable marks failures to open or reach the underlying
	// database. Callers degrade to ephemeral-only operation.
	ErrUnavailable = errors.New("storage unavailable")

	// ErrNotFound marks lookups that require a session to exist.
	ErrNotFound = errors.New("session not found")

	// ErrNotAssociated marks a delete request for a video id that has no
	// durable session. Surfaced rather than swallowed so callers can
	// detect a data-integrity problem.
	ErrNotAssociated = errors.New("no session associated with video")
)
