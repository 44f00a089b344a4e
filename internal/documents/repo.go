package documents

import (
	"context"
	"time"
)

// Repo persists documents. All reads and writes are owner-scoped.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userID, documentID string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	Delete(ctx context.Context, userID, documentID string) (Document, error)

	// MarkProcessing performs the pending->processing transition as a
	// single conditional update; it returns ErrAlreadyProcessing when the
	// document is currently processing.
	MarkProcessing(ctx context.Context, userID, documentID string, startedAt time.Time) error
	MarkCompleted(ctx context.Context, documentID string, completedAt time.Time, confidence float64) error
	MarkFailed(ctx context.Context, documentID string, completedAt time.Time, errMsg string) error
	SetKeywords(ctx context.Context, documentID string, keywords []string) error
}
