package usage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

type pgStore struct {
	db *sql.DB
}

// NewPGStore constructs a Postgres-backed quota store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{db: db}
}

func (s *pgStore) Get(ctx context.Context, userID string) (Usage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT plan, monthly_limit, documents_processed, usage_resets_at
		FROM users WHERE id = $1`, userID)
	var u Usage
	if err := row.Scan(&u.Plan, &u.Limit, &u.Used, &u.ResetsAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Usage{}, ErrUserNotFound
		}
		return Usage{}, fmt.Errorf("get usage: %w", err)
	}
	return u, nil
}

func (s *pgStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	u, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Usage{}, err
	}
	if err := tx.Commit(); err != nil {
		return Usage{}, fmt.Errorf("commit: %w", err)
	}
	return u, nil
}

func (s *pgStore) Consume(ctx context.Context, userID string, n int) (Usage, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	u, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Usage{}, err
	}
	if n > 0 && u.Used+n > u.Limit {
		return u, ErrLimitReached
	}
	if n > 0 {
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET documents_processed = documents_processed + $2, updated_at = now()
			WHERE id = $1`, userID, n); err != nil {
			return Usage{}, fmt.Errorf("consume usage: %w", err)
		}
		u.Used += n
	}
	if err := tx.Commit(); err != nil {
		return Usage{}, fmt.Errorf("commit: %w", err)
	}
	return u, nil
}

func (s *pgStore) Reset(ctx context.Context, userID string) (Usage, error) {
	resetsAt := nextPeriodStart(time.Now().UTC())
	res, err := s.db.ExecContext(ctx, `
		UPDATE users SET documents_processed = 0, usage_resets_at = $2, updated_at = now()
		WHERE id = $1`, userID, resetsAt)
	if err != nil {
		return Usage{}, fmt.Errorf("reset usage: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return Usage{}, ErrUserNotFound
	}
	return s.Get(ctx, userID)
}

// lockAndEnsure locks the user row and rolls the quota window forward
// when the reset time has passed.
func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (Usage, error) {
	row := tx.QueryRowContext(ctx, `
		SELECT plan, monthly_limit, documents_processed, usage_resets_at
		FROM users WHERE id = $1 FOR UPDATE`, userID)
	var u Usage
	if err := row.Scan(&u.Plan, &u.Limit, &u.Used, &u.ResetsAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Usage{}, ErrUserNotFound
		}
		return Usage{}, fmt.Errorf("lock usage row: %w", err)
	}
	now := time.Now().UTC()
	if !u.ResetsAt.After(now) {
		resetsAt := nextPeriodStart(now)
		if _, err := tx.ExecContext(ctx, `
			UPDATE users SET documents_processed = 0, usage_resets_at = $2, updated_at = now()
			WHERE id = $1`, userID, resetsAt); err != nil {
			return Usage{}, fmt.Errorf("roll usage period: %w", err)
		}
		u.Used = 0
		u.ResetsAt = resetsAt
	}
	return u, nil
}

func nextPeriodStart(now time.Time) time.Time {
	y, m, _ := now.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
}
