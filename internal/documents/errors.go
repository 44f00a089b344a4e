package documents

import "errors"

var (
	// ErrNotFound is returned when a document does not exist or is not
	// owned by the caller.
	ErrNotFound = errors.New("document not found")
	// ErrAlreadyProcessing is returned when a status transition to
	// processing loses the conditional update.
	ErrAlreadyProcessing = errors.New("document already processing")
)

// ValidationError is a user-facing upload rejection.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func newValidationError(msg string) error {
	return &ValidationError{Message: msg}
}
