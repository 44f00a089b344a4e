package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoMarkProcessingCAS(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	startedAt := time.Now().UTC()

	mock.ExpectExec(`UPDATE documents`).
		WithArgs("doc-1", "user-1", startedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkProcessing(context.Background(), "user-1", "doc-1", startedAt); err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoMarkProcessingConflict(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	startedAt := time.Now().UTC()

	// Conditional update matches zero rows because the document is
	// already processing; the follow-up read confirms it exists.
	mock.ExpectExec(`UPDATE documents`).
		WithArgs("doc-1", "user-1", startedAt).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT`).
		WithArgs("doc-1", "user-1").
		WillReturnRows(documentRows(startedAt))

	err = repo.MarkProcessing(context.Background(), "user-1", "doc-1", startedAt)
	if !errors.Is(err, ErrAlreadyProcessing) {
		t.Fatalf("expected ErrAlreadyProcessing, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	mock.ExpectQuery(`SELECT`).
		WithArgs("doc-x", "user-1").
		WillReturnRows(sqlmock.NewRows(documentColumnNames()))

	_, err = repo.GetByID(context.Background(), "user-1", "doc-x")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoMarkFailedMissingDocument(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	repo := &PGRepo{DB: db}
	mock.ExpectExec(`UPDATE documents`).
		WithArgs("doc-x", sqlmock.AnyArg(), "boom").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.MarkFailed(context.Background(), "doc-x", time.Now().UTC(), "boom")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func documentColumnNames() []string {
	return []string{
		"id", "user_id", "file_name", "mime_type", "size_bytes", "page_count",
		"storage_provider", "storage_key", "keywords", "processing_status",
		"processing_started_at", "processing_completed_at", "confidence_score",
		"error_message", "created_at", "updated_at",
	}
}

func documentRows(startedAt time.Time) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows(documentColumnNames()).AddRow(
		"doc-1", "user-1", "invoice.pdf", "application/pdf", int64(2048), nil,
		"local", "user-1/invoice.pdf", nil, StatusProcessing,
		startedAt, nil, nil,
		nil, now, now,
	)
}
