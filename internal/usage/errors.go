package usage

import "errors"

var (
	// ErrLimitReached signals the monthly document quota is exhausted.
	ErrLimitReached = errors.New("usage limit reached")
	// ErrUserNotFound signals the quota row's owner does not exist.
	ErrUserNotFound = errors.New("user not found")
)
