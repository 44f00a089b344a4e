package fields

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const fieldColumns = `
id, document_id, user_id, field_key, field_value, data_type, confidence,
extraction_method, is_corrected, original_value, created_at, updated_at`

// BatchInsert writes one row per extracted item in a single statement.
func (r *PGRepo) BatchInsert(ctx context.Context, items []ExtractedField) error {
	if len(items) == 0 {
		return nil
	}

	var sb strings.Builder
	sb.WriteString(`
INSERT INTO extracted_fields (
	id, document_id, user_id, field_key, field_value, data_type, confidence,
	extraction_method, is_corrected, original_value, created_at, updated_at
) VALUES `)
	args := make([]any, 0, len(items)*11)
	for i, f := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 11
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10, base+11, base+11)
		args = append(args,
			f.ID, f.DocumentID, f.UserID, f.FieldKey, f.FieldValue, f.DataType,
			f.Confidence, f.ExtractionMethod, f.IsCorrected, f.OriginalValue, f.CreatedAt,
		)
	}

	_, err := r.DB.ExecContext(ctx, sb.String(), args...)
	return err
}

// ListByDocument returns all fields of one document owned by the user.
func (r *PGRepo) ListByDocument(ctx context.Context, userID, documentID string) ([]ExtractedField, error) {
	query := `SELECT ` + fieldColumns + ` FROM extracted_fields
WHERE document_id = $1 AND user_id = $2
ORDER BY created_at ASC, field_key ASC`

	rows, err := r.DB.QueryContext(ctx, query, documentID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ExtractedField
	for rows.Next() {
		f, err := scanField(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// CountByDocument returns the number of fields for one document.
func (r *PGRepo) CountByDocument(ctx context.Context, userID, documentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM extracted_fields WHERE document_id = $1 AND user_id = $2`
	var n int
	if err := r.DB.QueryRowContext(ctx, query, documentID, userID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Correct applies a manual edit, marking the row corrected. The original
// value is written only when the caller provided one.
func (r *PGRepo) Correct(ctx context.Context, userID, documentID, fieldID string, correction Correction) (ExtractedField, error) {
	query := `
UPDATE extracted_fields
SET field_value = $4,
    is_corrected = TRUE,
    original_value = COALESCE($5::text, original_value),
    updated_at = now()
WHERE id = $1 AND document_id = $2 AND user_id = $3
RETURNING ` + fieldColumns

	row := r.DB.QueryRowContext(ctx, query, fieldID, documentID, userID, correction.FieldValue, correction.OriginalValue)
	return scanField(row)
}

var _ Repo = (*PGRepo)(nil)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanField(row rowScanner) (ExtractedField, error) {
	var f ExtractedField
	var confidence sql.NullFloat64
	var original sql.NullString
	err := row.Scan(
		&f.ID,
		&f.DocumentID,
		&f.UserID,
		&f.FieldKey,
		&f.FieldValue,
		&f.DataType,
		&confidence,
		&f.ExtractionMethod,
		&f.IsCorrected,
		&original,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ExtractedField{}, ErrNotFound
		}
		return ExtractedField{}, err
	}
	if confidence.Valid {
		f.Confidence = &confidence.Float64
	}
	if original.Valid {
		f.OriginalValue = &original.String
	}
	return f, nil
}
