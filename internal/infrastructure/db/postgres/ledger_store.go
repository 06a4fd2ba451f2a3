package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

// SQLSTATE codes that mean the transaction lost a race and may be retried.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// compile-time interface check
var _ ports.LedgerStore = (*LedgerStore)(nil)

// LedgerStore implements ports.LedgerStore on PostgreSQL. Rows read for
// update inside WithinTx are locked with SELECT ... FOR UPDATE.
type LedgerStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewLedgerStore wraps an open pool. timeout bounds every single statement.
func NewLedgerStore(pool *pgxpool.Pool, timeout time.Duration) *LedgerStore {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &LedgerStore{pool: pool, timeout: timeout}
}

// querier is the subset of pgx shared by pools and transactions.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *LedgerStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, true, fn)
}

// View runs fn in a read-only transaction.
func (s *LedgerStore) View(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	return s.run(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted, AccessMode: pgx.ReadOnly}, false, fn)
}

func (s *LedgerStore) run(ctx context.Context, opts pgx.TxOptions, lock bool, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pgTx, err := s.pool.BeginTx(ctx, opts)
	if err != nil {
		return classify(fmt.Errorf("begin: %w", err))
	}
	if err := fn(ctx, &tx{q: pgTx, lock: lock, timeout: s.timeout}); err != nil {
		rollbackCtx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_ = pgTx.Rollback(rollbackCtx)
		return classify(err)
	}
	if err := pgTx.Commit(ctx); err != nil {
		return classify(fmt.Errorf("commit: %w", err))
	}
	return nil
}

func (s *LedgerStore) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.pool.Ping(ctx)
}

func (s *LedgerStore) Close(_ context.Context) error {
	s.pool.Close()
	return nil
}

// classify maps driver failures onto the domain error kinds.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var derr *domain.Error
	if errors.As(err, &derr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeSerializationFailure, codeDeadlockDetected, codeUniqueViolation:
			return fmt.Errorf("%w: %v", domain.ErrConcurrentUpdate, err)
		}
		return err
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) || pgconn.Timeout(err) {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	return err
}

type tx struct {
	q       querier
	lock    bool
	timeout time.Duration
}

func (t *tx) Actors() ports.ActorRepository     { return &actorRepository{t} }
func (t *tx) Sessions() ports.SessionRepository { return &sessionRepository{t} }
func (t *tx) Content() ports.ContentRepository  { return &contentRepository{t} }
func (t *tx) Audit() ports.AuditRepository      { return &auditRepository{t} }

// forUpdate appends a row lock to a single-row select in write transactions.
func (t *tx) forUpdate(query string) string {
	if t.lock {
		return query + " FOR UPDATE"
	}
	return query
}

// exec runs a statement that must touch exactly one row.
func (t *tx) exec(ctx context.Context, notMatched error, sql string, args ...any) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	tag, err := t.q.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return notMatched
	}
	return nil
}

// numeric converts a NUMERIC column read as text.
func numeric(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

// noRows maps pgx.ErrNoRows onto notFound.
func noRows(err, notFound error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return err
}
