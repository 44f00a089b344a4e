package integrations

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for local development and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	rows map[string]Row
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: make(map[string]Row)}
}

func (r *MemoryRepo) Create(ctx context.Context, row Row) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[row.ID] = row
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, integrationID string) (Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	row, ok := r.rows[integrationID]
	if !ok || row.UserID != userID {
		return Row{}, ErrNotFound
	}
	return row, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Row, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Row
	for _, row := range r.rows {
		if row.UserID == userID {
			out = append(out, row)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, userID, integrationID string, update Update) (Row, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[integrationID]
	if !ok || row.UserID != userID {
		return Row{}, ErrNotFound
	}
	if update.Name != nil {
		row.Name = *update.Name
	}
	if update.Config != nil {
		row.Config = *update.Config
	}
	if update.IsActive != nil {
		row.IsActive = *update.IsActive
	}
	row.UpdatedAt = time.Now().UTC()
	r.rows[integrationID] = row
	return row, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, integrationID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[integrationID]
	if !ok || row.UserID != userID {
		return ErrNotFound
	}
	delete(r.rows, integrationID)
	return nil
}

func (r *MemoryRepo) TouchLastSync(ctx context.Context, integrationID string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[integrationID]
	if !ok {
		return ErrNotFound
	}
	row.LastSyncAt = &at
	row.UpdatedAt = time.Now().UTC()
	r.rows[integrationID] = row
	return nil
}

var _ Repo = (*MemoryRepo)(nil)

// MemoryHistoryRepo is an in-memory HistoryRepo.
type MemoryHistoryRepo struct {
	mu      sync.RWMutex
	records []PushRecord
}

func NewMemoryHistoryRepo() *MemoryHistoryRepo {
	return &MemoryHistoryRepo{}
}

func (r *MemoryHistoryRepo) Append(ctx context.Context, record PushRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, record)
	return nil
}

func (r *MemoryHistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]PushRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []PushRecord
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		if r.records[i].UserID == userID {
			out = append(out, r.records[i])
		}
	}
	return out, nil
}

var _ HistoryRepo = (*MemoryHistoryRepo)(nil)
