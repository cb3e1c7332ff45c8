// README: Quota tests; the fake ledger mirrors the SQL reset rule, DB-backed cases need TRIPGENIE_TEST_DSN.
package quota

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	remaining int
	month     string
}

type fakeLedger struct {
	rows      map[string]*row
	ensureErr error
}

func newFakeLedger() *fakeLedger { return &fakeLedger{rows: map[string]*row{}} }

func (f *fakeLedger) Consume(_ context.Context, uid, month string, allowance int) error {
	r, ok := f.rows[uid]
	if !ok || (r.month >= month && r.remaining <= 0) {
		return ErrExhausted
	}
	if r.month != month {
		r.remaining = allowance
	}
	r.remaining--
	r.month = month
	return nil
}

func (f *fakeLedger) Ensure(_ context.Context, uid, month string, allowance int) error {
	if f.ensureErr != nil {
		return f.ensureErr
	}
	if _, ok := f.rows[uid]; !ok {
		f.rows[uid] = &row{remaining: allowance, month: month}
	}
	return nil
}

func (f *fakeLedger) Remaining(_ context.Context, uid, month string, allowance int) (int, error) {
	r, ok := f.rows[uid]
	if !ok || r.month < month {
		return allowance, nil
	}
	return r.remaining, nil
}

func fixedService(store ledger, allowance int, at time.Time) *Service {
	s := NewService(store, allowance)
	s.now = func() time.Time { return at }
	return s
}

func TestConsumeNewCaller(t *testing.T) {
	l := newFakeLedger()
	s := fixedService(l, 3, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.Consume(context.Background(), "u1"))
	left, err := s.Remaining(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, left)
}

func TestConsumeUntilExhausted(t *testing.T) {
	s := fixedService(newFakeLedger(), 2, time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, s.Consume(ctx, "u1"))
	require.NoError(t, s.Consume(ctx, "u1"))
	assert.ErrorIs(t, s.Consume(ctx, "u1"), ErrExhausted)
}

func TestConsumeResetsNextMonth(t *testing.T) {
	l := newFakeLedger()
	l.rows["u1"] = &row{remaining: 0, month: "2026-04"}
	s := fixedService(l, 5, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, s.Consume(context.Background(), "u1"))
	assert.Equal(t, 4, l.rows["u1"].remaining)
	assert.Equal(t, "2026-05", l.rows["u1"].month)
}

func TestConsumeEnsureFailure(t *testing.T) {
	l := newFakeLedger()
	l.ensureErr = errors.New("db down")
	s := NewService(l, 1)

	err := s.Consume(context.Background(), "u1")
	assert.EqualError(t, err, "db down")
}

func TestNewServiceDefaultsAllowance(t *testing.T) {
	assert.Equal(t, DefaultMonthlyTrips, NewService(newFakeLedger(), 0).Allowance())
}

// TestStoreCrossMonthReset checks the SQL reset rule against a real database.
func TestStoreCrossMonthReset(t *testing.T) {
	s, db := setupDBService(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx, "INSERT INTO trip_quota VALUES ('user_reset', 0, '2000-01')"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.Consume(ctx, "user_reset"); err != nil {
		t.Fatalf("Consume after cross-month reset: %v", err)
	}
	left, err := s.Remaining(ctx, "user_reset")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if left != s.Allowance()-1 {
		t.Fatalf("expected %d trips remaining, got %d", s.Allowance()-1, left)
	}
}

func TestStoreExhausted(t *testing.T) {
	s, db := setupDBService(t)
	ctx := context.Background()

	if _, err := db.Exec(ctx,
		"INSERT INTO trip_quota (uid, trips_remaining, period_month) VALUES ('user_zero', 0, TO_CHAR(NOW() AT TIME ZONE 'UTC', 'YYYY-MM'))",
	); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := s.Consume(ctx, "user_zero"); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
}

func TestStoreNewCaller(t *testing.T) {
	s, _ := setupDBService(t)
	ctx := context.Background()

	if err := s.Consume(ctx, "user_new"); err != nil {
		t.Fatalf("Consume for new caller: %v", err)
	}
	left, err := s.Remaining(ctx, "user_new")
	if err != nil {
		t.Fatalf("remaining: %v", err)
	}
	if left != s.Allowance()-1 {
		t.Fatalf("expected %d trips remaining after first use, got %d", s.Allowance()-1, left)
	}
}

// setupDBService skips unless TRIPGENIE_TEST_DSN points at a disposable Postgres.
func setupDBService(t *testing.T) (*Service, *pgxpool.Pool) {
	t.Helper()

	dsn := os.Getenv("TRIPGENIE_TEST_DSN")
	if dsn == "" {
		t.Skip("TRIPGENIE_TEST_DSN not set; skipping DB-backed tests")
	}

	ctx := context.Background()
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := applyMigrations(ctx, db); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE trip_quota"); err != nil {
		t.Fatalf("truncate trip_quota: %v", err)
	}
	return NewService(NewStore(db), 10), db
}

func applyMigrations(ctx context.Context, db *pgxpool.Pool) error {
	root, err := repoRoot()
	if err != nil {
		return err
	}
	paths, err := filepath.Glob(filepath.Join(root, "migrations", "*.sql"))
	if err != nil {
		return err
	}
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		for _, stmt := range splitSQL(stripSQLComments(string(content))) {
			if _, err := db.Exec(ctx, stmt); err != nil {
				return err
			}
		}
	}
	return nil
}

func repoRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for i := 0; i < 6; i++ {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
	var b strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(input))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		b.WriteString(scanner.Text())
		b.WriteString("\n")
	}
	return b.String()
}

func splitSQL(input string) []string {
	var out []string
	for _, p := range strings.Split(input, ";") {
		if stmt := strings.TrimSpace(p); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
