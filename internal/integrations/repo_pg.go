package integrations

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const integrationColumns = `
id, user_id, type, name, config, is_active, last_sync_at, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, row Row) error {
	const query = `
INSERT INTO integrations (id, user_id, type, name, config, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`
	_, err := r.DB.ExecContext(ctx, query,
		row.ID, row.UserID, row.Type, row.Name, row.Config, row.IsActive, row.CreatedAt)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID, integrationID string) (Row, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations WHERE id = $1 AND user_id = $2 LIMIT 1`
	return scanIntegration(r.DB.QueryRowContext(ctx, query, integrationID, userID))
}

func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Row, error) {
	query := `SELECT ` + integrationColumns + ` FROM integrations
WHERE user_id = $1
ORDER BY created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := scanIntegration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *PGRepo) Update(ctx context.Context, userID, integrationID string, update Update) (Row, error) {
	query := `
UPDATE integrations
SET name = COALESCE($3::text, name),
    config = COALESCE($4::text, config),
    is_active = CASE WHEN $5::boolean IS NOT NULL THEN $5::boolean ELSE is_active END,
    updated_at = now()
WHERE id = $1 AND user_id = $2
RETURNING ` + integrationColumns

	row := r.DB.QueryRowContext(ctx, query, integrationID, userID, update.Name, update.Config, update.IsActive)
	return scanIntegration(row)
}

func (r *PGRepo) Delete(ctx context.Context, userID, integrationID string) error {
	const query = `DELETE FROM integrations WHERE id = $1 AND user_id = $2`
	res, err := r.DB.ExecContext(ctx, query, integrationID, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) TouchLastSync(ctx context.Context, integrationID string, at time.Time) error {
	const query = `UPDATE integrations SET last_sync_at = $2, updated_at = now() WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, integrationID, at)
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

func scanIntegration(row rowScanner) (Row, error) {
	var out Row
	var lastSync sql.NullTime
	err := row.Scan(
		&out.ID,
		&out.UserID,
		&out.Type,
		&out.Name,
		&out.Config,
		&out.IsActive,
		&lastSync,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Row{}, ErrNotFound
		}
		return Row{}, err
	}
	if lastSync.Valid {
		out.LastSyncAt = &lastSync.Time
	}
	return out, nil
}

// PGHistoryRepo implements HistoryRepo using Postgres.
type PGHistoryRepo struct {
	DB *sql.DB
}

func (r *PGHistoryRepo) Append(ctx context.Context, record PushRecord) error {
	const query = `
INSERT INTO push_history (id, user_id, document_id, integration_id, success, external_id, error_message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.DB.ExecContext(ctx, query,
		record.ID, record.UserID, record.DocumentID, record.IntegrationID,
		record.Success, record.ExternalID, record.ErrorMessage, record.CreatedAt)
	return err
}

func (r *PGHistoryRepo) ListByUser(ctx context.Context, userID string, limit int) ([]PushRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	const query = `
SELECT id, user_id, document_id, integration_id, success, external_id, error_message, created_at
FROM push_history
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PushRecord
	for rows.Next() {
		var rec PushRecord
		var documentID sql.NullString
		var integrationID sql.NullString
		var externalID sql.NullString
		var errMsg sql.NullString
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &documentID, &integrationID,
			&rec.Success, &externalID, &errMsg, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		if documentID.Valid {
			rec.DocumentID = &documentID.String
		}
		if integrationID.Valid {
			rec.IntegrationID = &integrationID.String
		}
		if externalID.Valid {
			rec.ExternalID = &externalID.String
		}
		if errMsg.Valid {
			rec.ErrorMessage = &errMsg.String
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

var _ HistoryRepo = (*PGHistoryRepo)(nil)
