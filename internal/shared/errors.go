package shared

import "errors"

var (
	// ErrNotFound indicates a referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates the input failed business validation.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState indicates the operation is not allowed in the record's
	// current lifecycle status.
	ErrInvalidState = errors.New("invalid state")
)
