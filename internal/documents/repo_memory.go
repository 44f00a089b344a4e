package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repo for local development and tests.
type MemoryRepo struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{docs: make(map[string]Document)}
}

func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []Document
	for _, doc := range r.docs {
		if doc.UserID == userID {
			out = append(out, doc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, userID, documentID string) (Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	delete(r.docs, documentID)
	return doc, nil
}

func (r *MemoryRepo) MarkProcessing(ctx context.Context, userID, documentID string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	if doc.ProcessingStatus == StatusProcessing {
		return ErrAlreadyProcessing
	}
	doc.ProcessingStatus = StatusProcessing
	doc.ProcessingStartedAt = &startedAt
	doc.ProcessingCompletedAt = nil
	doc.ConfidenceScore = nil
	doc.ErrorMessage = nil
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryRepo) MarkCompleted(ctx context.Context, documentID string, completedAt time.Time, confidence float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.ProcessingStatus = StatusCompleted
	doc.ProcessingCompletedAt = &completedAt
	doc.ConfidenceScore = &confidence
	doc.ErrorMessage = nil
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryRepo) MarkFailed(ctx context.Context, documentID string, completedAt time.Time, errMsg string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.ProcessingStatus = StatusFailed
	doc.ProcessingCompletedAt = &completedAt
	doc.ErrorMessage = &errMsg
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return nil
}

func (r *MemoryRepo) SetKeywords(ctx context.Context, documentID string, keywords []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.Keywords = keywords
	doc.UpdatedAt = time.Now().UTC()
	r.docs[documentID] = doc
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
