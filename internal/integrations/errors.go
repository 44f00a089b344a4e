package integrations

import "errors"

var (
	// ErrNotFound is returned when an integration does not exist or
	// belongs to another user.
	ErrNotFound = errors.New("integration not found")
	// ErrNotImplemented is returned for push targets without a provider
	// implementation.
	ErrNotImplemented = errors.New("integration type not yet implemented")
	// ErrInactive is returned when pushing to a deactivated integration.
	ErrInactive = errors.New("integration is not active")
	// ErrInvalidConfig is returned when a provider config is missing
	// required keys.
	ErrInvalidConfig = errors.New("invalid integration config")
)
