package usage

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu    sync.Mutex
	users map[string]*Usage
}

func newMemoryStore() *memoryStore {
	return &memoryStore{users: make(map[string]*Usage)}
}

func (s *memoryStore) Get(ctx context.Context, userID string) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensure(userID)
	return *u, nil
}

func (s *memoryStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensure(userID)
	s.rollPeriod(u)
	return *u, nil
}

func (s *memoryStore) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensure(userID)
	s.rollPeriod(u)
	if n > 0 && u.Used+n > u.Limit {
		return *u, ErrLimitReached
	}
	if n > 0 {
		u.Used += n
	}
	return *u, nil
}

func (s *memoryStore) Reset(ctx context.Context, userID string) (Usage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.ensure(userID)
	u.Used = 0
	u.ResetsAt = nextPeriodStart(time.Now().UTC())
	return *u, nil
}

func (s *memoryStore) ensure(userID string) *Usage {
	u, ok := s.users[userID]
	if !ok {
		u = &Usage{
			Plan:     "free",
			Limit:    20,
			Used:     0,
			ResetsAt: nextPeriodStart(time.Now().UTC()),
		}
		s.users[userID] = u
	}
	return u
}

func (s *memoryStore) rollPeriod(u *Usage) {
	now := time.Now().UTC()
	if !u.ResetsAt.After(now) {
		u.Used = 0
		u.ResetsAt = nextPeriodStart(now)
	}
}
