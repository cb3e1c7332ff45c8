// README: Per-caller monthly trip allowance with lazy reset at month boundaries.
package quota

import (
	"context"
	"errors"
	"time"
)

type ledger interface {
	Consume(ctx context.Context, uid, month string, allowance int) error
	Ensure(ctx context.Context, uid, month string, allowance int) error
	Remaining(ctx context.Context, uid, month string, allowance int) (int, error)
}

type Service struct {
	store     ledger
	allowance int
	now       func() time.Time
}

// NewService creates a Service granting allowance trips per calendar month (UTC).
func NewService(store ledger, allowance int) *Service {
	if allowance <= 0 {
		allowance = DefaultMonthlyTrips
	}
	return &Service{store: store, allowance: allowance, now: time.Now}
}

func (s *Service) Allowance() int { return s.allowance }

// Consume deducts one trip from uid's allowance, creating the row on first use.
// Returns ErrExhausted once the month's allowance is spent.
func (s *Service) Consume(ctx context.Context, uid string) error {
	month := s.month()
	err := s.store.Consume(ctx, uid, month, s.allowance)
	if !errors.Is(err, ErrExhausted) {
		return err
	}

	// Row may be missing: create it, then retry the deduction once.
	if err := s.store.Ensure(ctx, uid, month, s.allowance); err != nil {
		return err
	}
	return s.store.Consume(ctx, uid, month, s.allowance)
}

func (s *Service) Remaining(ctx context.Context, uid string) (int, error) {
	return s.store.Remaining(ctx, uid, s.month(), s.allowance)
}

func (s *Service) month() string {
	return s.now().UTC().Format(monthLayout)
}
