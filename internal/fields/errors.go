package fields

import "errors"

var (
	// ErrNotFound is returned when a field does not exist or belongs to
	// another user's document.
	ErrNotFound = errors.New("extracted field not found")
)
