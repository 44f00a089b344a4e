package documents

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `
id, user_id, file_name, mime_type, size_bytes, page_count, storage_provider, storage_key,
keywords, processing_status, processing_started_at, processing_completed_at,
confidence_score, error_message, created_at, updated_at`

// Create inserts a new document row.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
	id, user_id, file_name, mime_type, size_bytes, page_count, storage_provider, storage_key,
	keywords, processing_status, created_at, updated_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`
	_, err := r.DB.ExecContext(ctx, query,
		doc.ID,
		doc.UserID,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.PageCount,
		doc.StorageProvider,
		doc.StorageKey,
		joinKeywords(doc.Keywords),
		doc.ProcessingStatus,
		doc.CreatedAt,
	)
	return err
}

// GetByID returns a document owned by the given user.
func (r *PGRepo) GetByID(ctx context.Context, userID, documentID string) (Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1 AND user_id = $2 LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, documentID, userID)
	return scanDocument(row)
}

// ListByUser lists documents for a user ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ` + documentColumns + ` FROM documents
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// Delete removes a document (its extracted fields cascade) and returns
// the deleted row so callers can remove the backing blob.
func (r *PGRepo) Delete(ctx context.Context, userID, documentID string) (Document, error) {
	query := `DELETE FROM documents WHERE id = $1 AND user_id = $2 RETURNING ` + documentColumns
	row := r.DB.QueryRowContext(ctx, query, documentID, userID)
	return scanDocument(row)
}

// MarkProcessing is the compare-and-set transition into processing.
func (r *PGRepo) MarkProcessing(ctx context.Context, userID, documentID string, startedAt time.Time) error {
	const query = `
UPDATE documents
SET processing_status = 'processing',
    processing_started_at = $3,
    processing_completed_at = NULL,
    confidence_score = NULL,
    error_message = NULL,
    updated_at = now()
WHERE id = $1 AND user_id = $2 AND processing_status <> 'processing'`

	res, err := r.DB.ExecContext(ctx, query, documentID, userID, startedAt)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish a lost CAS from a missing document.
		if _, err := r.GetByID(ctx, userID, documentID); err != nil {
			return err
		}
		return ErrAlreadyProcessing
	}
	return nil
}

// MarkCompleted finalizes a successful extraction.
func (r *PGRepo) MarkCompleted(ctx context.Context, documentID string, completedAt time.Time, confidence float64) error {
	const query = `
UPDATE documents
SET processing_status = 'completed',
    processing_completed_at = $2,
    confidence_score = $3,
    error_message = NULL,
    updated_at = now()
WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, query, documentID, completedAt, confidence)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkFailed finalizes a failed extraction with its error message.
func (r *PGRepo) MarkFailed(ctx context.Context, documentID string, completedAt time.Time, errMsg string) error {
	const query = `
UPDATE documents
SET processing_status = 'failed',
    processing_completed_at = $2,
    error_message = $3,
    updated_at = now()
WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, query, documentID, completedAt, errMsg)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetKeywords stores the keyword list supplied at trigger time.
func (r *PGRepo) SetKeywords(ctx context.Context, documentID string, keywords []string) error {
	const query = `UPDATE documents SET keywords = $2, updated_at = now() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, documentID, joinKeywords(keywords))
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var d Document
	var pageCount sql.NullInt64
	var keywords sql.NullString
	var startedAt sql.NullTime
	var completedAt sql.NullTime
	var confidence sql.NullFloat64
	var errMsg sql.NullString
	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.FileName,
		&d.MimeType,
		&d.SizeBytes,
		&pageCount,
		&d.StorageProvider,
		&d.StorageKey,
		&keywords,
		&d.ProcessingStatus,
		&startedAt,
		&completedAt,
		&confidence,
		&errMsg,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	if pageCount.Valid {
		n := int(pageCount.Int64)
		d.PageCount = &n
	}
	if keywords.Valid {
		d.Keywords = splitKeywords(keywords.String)
	}
	if startedAt.Valid {
		d.ProcessingStartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		d.ProcessingCompletedAt = &completedAt.Time
	}
	if confidence.Valid {
		d.ConfidenceScore = &confidence.Float64
	}
	if errMsg.Valid {
		d.ErrorMessage = &errMsg.String
	}
	return d, nil
}

func joinKeywords(keywords []string) any {
	if len(keywords) == 0 {
		return nil
	}
	return strings.Join(keywords, ",")
}

func splitKeywords(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
