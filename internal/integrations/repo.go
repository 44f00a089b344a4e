package integrations

import (
	"context"
	"time"
)

// Row is the storage shape of an integration; Config is the sealed blob.
type Row struct {
	ID         string
	UserID     string
	Type       string
	Name       string
	Config     string
	IsActive   bool
	LastSyncAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Update carries mutable integration attributes; nil means unchanged.
type Update struct {
	Name     *string
	Config   *string
	IsActive *bool
}

// Repo persists integrations. All reads and writes are owner-scoped.
type Repo interface {
	Create(ctx context.Context, row Row) error
	GetByID(ctx context.Context, userID, integrationID string) (Row, error)
	ListByUser(ctx context.Context, userID string) ([]Row, error)
	Update(ctx context.Context, userID, integrationID string, update Update) (Row, error)
	Delete(ctx context.Context, userID, integrationID string) error
	TouchLastSync(ctx context.Context, integrationID string, at time.Time) error
}

// HistoryRepo appends and lists push audit records.
type HistoryRepo interface {
	Append(ctx context.Context, record PushRecord) error
	ListByUser(ctx context.Context, userID string, limit int) ([]PushRecord, error)
}
