package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

// Repo defines persistence operations for users.
type Repo interface {
	Upsert(ctx context.Context, user User) (User, error)
	GetByExternalID(ctx context.Context, externalID string) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
	DeleteByExternalID(ctx context.Context, externalID string) error
}
