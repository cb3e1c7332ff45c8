package quota

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store handles trip_quota persistence.
type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// Consume atomically checks the allowance for month and deducts one trip. A row from an
// earlier month is reset to allowance first. It returns ErrExhausted when no row was
// updated, which also covers a caller without a row.
func (s *Store) Consume(ctx context.Context, uid, month string, allowance int) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE trip_quota SET
			trips_remaining = CASE WHEN period_month != $1 THEN $2 - 1 ELSE trips_remaining - 1 END,
			period_month = $1
		WHERE uid = $3 AND (period_month < $1 OR trips_remaining > 0)
	`, month, allowance, uid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExhausted
	}
	return nil
}

// Ensure creates the caller's row with a full allowance. Existing rows are untouched.
func (s *Store) Ensure(ctx context.Context, uid, month string, allowance int) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trip_quota (uid, trips_remaining, period_month)
		VALUES ($1, $2, $3)
		ON CONFLICT (uid) DO NOTHING
	`, uid, allowance, month)
	return err
}

// Remaining reports the trips left in month; callers without a row have the full allowance.
func (s *Store) Remaining(ctx context.Context, uid, month string, allowance int) (int, error) {
	var remaining int
	var period string
	err := s.db.QueryRow(ctx,
		`SELECT trips_remaining, period_month FROM trip_quota WHERE uid = $1`, uid,
	).Scan(&remaining, &period)
	if errors.Is(err, pgx.ErrNoRows) {
		return allowance, nil
	}
	if err != nil {
		return 0, err
	}
	if period < month {
		return allowance, nil
	}
	return remaining, nil
}
