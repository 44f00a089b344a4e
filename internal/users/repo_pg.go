package users

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Upsert inserts or updates a user keyed by external identity id.
func (r *PGRepo) Upsert(ctx context.Context, user User) (User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.Plan == "" {
		user.Plan = "free"
	}
	if user.MonthlyLimit <= 0 {
		user.MonthlyLimit = DefaultMonthlyLimit
	}
	const query = `
INSERT INTO users (id, external_id, email, full_name, plan, documents_processed, monthly_limit, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, 0, $6, now(), now())
ON CONFLICT (external_id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  updated_at = now()
RETURNING id, external_id, email, COALESCE(full_name, ''), plan, documents_processed, monthly_limit, created_at, updated_at`
	var out User
	err := r.DB.QueryRowContext(ctx, query,
		user.ID,
		user.ExternalID,
		user.Email,
		nullableString(user.FullName),
		user.Plan,
		user.MonthlyLimit,
	).Scan(
		&out.ID,
		&out.ExternalID,
		&out.Email,
		&out.FullName,
		&out.Plan,
		&out.DocumentsProcessed,
		&out.MonthlyLimit,
		&out.CreatedAt,
		&out.UpdatedAt,
	)
	if err != nil {
		return User{}, err
	}
	return out, nil
}

// GetByExternalID fetches a user by identity-provider id.
func (r *PGRepo) GetByExternalID(ctx context.Context, externalID string) (User, error) {
	return r.get(ctx, `WHERE external_id = $1`, externalID)
}

// GetByID fetches a user by internal id.
func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	return r.get(ctx, `WHERE id = $1`, userID)
}

func (r *PGRepo) get(ctx context.Context, where string, arg any) (User, error) {
	query := `
SELECT id, external_id, email, COALESCE(full_name, ''), plan, documents_processed, monthly_limit, created_at, updated_at
FROM users ` + where + ` LIMIT 1`
	var user User
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&user.ID,
		&user.ExternalID,
		&user.Email,
		&user.FullName,
		&user.Plan,
		&user.DocumentsProcessed,
		&user.MonthlyLimit,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = time.Now().UTC()
	}
	return user, nil
}

// DeleteByExternalID removes a user on an identity-provider deletion event.
func (r *PGRepo) DeleteByExternalID(ctx context.Context, externalID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE external_id = $1`, externalID)
	return err
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

var _ Repo = (*PGRepo)(nil)
