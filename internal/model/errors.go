package model

import "errors"

// Errors returned by the store and the lernjob core. Wrap them with %w and
// check them with errors.Is.
var (
	ErrInvalidTransition = errors.New("invalid task state transition")
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation error")
	ErrForbidden         = errors.New("forbidden")
)
