package domain

import "errors"

// Sentinel errors used throughout the application.
// Handlers translate these to HTTP status codes via a single mapError function.
var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidEvent = errors.New("event payload is missing required fields")
	ErrMissingToken = errors.New("request has no recipient token")
)
