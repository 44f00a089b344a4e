package users

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepo is an in-memory Repo for dev and tests.
type MemoryRepo struct {
	mu         sync.RWMutex
	byExternal map[string]User
}

// NewMemoryRepo constructs an empty MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byExternal: make(map[string]User)}
}

func (r *MemoryRepo) Upsert(ctx context.Context, user User) (User, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	existing, ok := r.byExternal[user.ExternalID]
	if ok {
		existing.Email = user.Email
		existing.FullName = user.FullName
		existing.UpdatedAt = now
		r.byExternal[user.ExternalID] = existing
		return existing, nil
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Plan == "" {
		user.Plan = "free"
	}
	if user.MonthlyLimit <= 0 {
		user.MonthlyLimit = DefaultMonthlyLimit
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	r.byExternal[user.ExternalID] = user
	return user, nil
}

func (r *MemoryRepo) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byExternal[externalID]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (User, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, user := range r.byExternal {
		if user.ID == userID {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (r *MemoryRepo) DeleteByExternalID(ctx context.Context, externalID string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byExternal, externalID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
