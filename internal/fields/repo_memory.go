package fields

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for local development and tests.
type MemoryRepo struct {
	mu     sync.RWMutex
	fields map[string]ExtractedField
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{fields: make(map[string]ExtractedField)}
}

func (r *MemoryRepo) BatchInsert(ctx context.Context, items []ExtractedField) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range items {
		r.fields[f.ID] = f
	}
	return nil
}

func (r *MemoryRepo) ListByDocument(ctx context.Context, userID, documentID string) ([]ExtractedField, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []ExtractedField
	for _, f := range r.fields {
		if f.DocumentID == documentID && f.UserID == userID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].FieldKey < out[j].FieldKey
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *MemoryRepo) CountByDocument(ctx context.Context, userID, documentID string) (int, error) {
	items, err := r.ListByDocument(ctx, userID, documentID)
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

func (r *MemoryRepo) Correct(ctx context.Context, userID, documentID, fieldID string, correction Correction) (ExtractedField, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.fields[fieldID]
	if !ok || f.DocumentID != documentID || f.UserID != userID {
		return ExtractedField{}, ErrNotFound
	}
	f.FieldValue = correction.FieldValue
	f.IsCorrected = true
	if correction.OriginalValue != nil {
		f.OriginalValue = correction.OriginalValue
	}
	f.UpdatedAt = time.Now().UTC()
	r.fields[fieldID] = f
	return f, nil
}

var _ Repo = (*MemoryRepo)(nil)
