package users

import (
	"context"
	"errors"
	"strings"
)

// Service contains business logic for users.
type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromIdentity persists a user from an identity-provider event.
func (s *Service) UpsertFromIdentity(ctx context.Context, user User) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(user.ExternalID) == "" || strings.TrimSpace(user.Email) == "" {
		return User{}, errors.New("external id and email are required")
	}
	return s.Repo.Upsert(ctx, user)
}

// DeleteFromIdentity removes a user on an identity-provider deletion event.
func (s *Service) DeleteFromIdentity(ctx context.Context, externalID string) error {
	if s == nil || s.Repo == nil {
		return errors.New("users service not configured")
	}
	if strings.TrimSpace(externalID) == "" {
		return errors.New("external id is required")
	}
	return s.Repo.DeleteByExternalID(ctx, externalID)
}

// Resolve maps an external identity id to the internal user row.
// It is the ownership anchor for every other service.
func (s *Service) Resolve(ctx context.Context, externalID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(externalID) == "" {
		return User{}, ErrNotFound
	}
	return s.Repo.GetByExternalID(ctx, externalID)
}
