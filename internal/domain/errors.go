package domain

import "errors"

// Error taxonomy (sentinels)
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrSessionConflict   = errors.New("session state conflict")
	ErrAIUnavailable     = errors.New("ai unavailable")
	ErrMalformedAIOutput = errors.New("malformed ai output")
	ErrPersistence       = errors.New("persistence failure")
	ErrInternal          = errors.New("internal error")
)
