package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

const sessionColumns = `id, session_ref, client_id, model_id, session_type, package_price::text, status, actual_start, ended_at, created_at`

type sessionRepository struct {
	t *tx
}

func scanSession(row pgx.Row) (*domain.Session, error) {
	var (
		s      domain.Session
		price  string
		status string
	)
	err := row.Scan(&s.ID, &s.Ref, &s.ClientID, &s.ModelID, &s.Type, &price,
		&status, &s.ActualStart, &s.EndedAt, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.Status = domain.SessionStatus(status)
	if s.PackagePrice, err = numeric(price); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *sessionRepository) Create(ctx context.Context, s *domain.Session, e *domain.EscrowAccount) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	err := r.t.q.QueryRow(ctx, `
INSERT INTO sessions (session_ref, client_id, model_id, session_type, package_price, status, created_at)
VALUES ($1, $2, $3, $4, $5::numeric, $6, $7)
RETURNING id`,
		s.Ref, s.ClientID, s.ModelID, s.Type, s.PackagePrice.String(), string(s.Status), s.CreatedAt,
	).Scan(&s.ID)
	if err != nil {
		return err
	}

	e.SessionID = s.ID
	return r.t.q.QueryRow(ctx, `
INSERT INTO escrow_accounts (session_id, amount, status, created_at)
VALUES ($1, $2::numeric, $3, $4)
RETURNING id`,
		e.SessionID, e.Amount.String(), string(e.Status), e.CreatedAt,
	).Scan(&e.ID)
}

func (r *sessionRepository) FindByRef(ctx context.Context, ref string) (*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	row := r.t.q.QueryRow(ctx, r.t.forUpdate(`SELECT `+sessionColumns+` FROM sessions WHERE session_ref = $1`), ref)
	s, err := scanSession(row)
	if err != nil {
		return nil, noRows(err, domain.ErrSessionNotFound)
	}
	return s, nil
}

// UpdateStatus stamps actual_start when a session goes active and ended_at
// when it completes.
func (r *sessionRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.SessionStatus, at time.Time) error {
	var stamp string
	switch to {
	case domain.SessionActive:
		stamp = ", actual_start = $4"
	case domain.SessionCompleted:
		stamp = ", ended_at = $4"
	}
	if stamp == "" {
		return r.t.exec(ctx, domain.ErrConcurrentUpdate,
			`UPDATE sessions SET status = $3 WHERE id = $1 AND status = $2`,
			id, string(from), string(to))
	}
	return r.t.exec(ctx, domain.ErrConcurrentUpdate,
		`UPDATE sessions SET status = $3`+stamp+` WHERE id = $1 AND status = $2`,
		id, string(from), string(to), at)
}

func (r *sessionRepository) ListByActor(ctx context.Context, actorID int64, limit int) ([]*domain.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE client_id = $1 OR model_id = $1 ORDER BY id DESC`
	args := []any{actorID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.t.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *sessionRepository) FindEscrow(ctx context.Context, sessionID int64) (*domain.EscrowAccount, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	var (
		e      domain.EscrowAccount
		amount string
		status string
	)
	err := r.t.q.QueryRow(ctx, r.t.forUpdate(`
SELECT id, session_id, amount::text, status, dispute_reason, released_at, created_at
FROM escrow_accounts WHERE session_id = $1`), sessionID).Scan(
		&e.ID, &e.SessionID, &amount, &status, &e.DisputeReason, &e.ReleasedAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, noRows(err, domain.ErrEscrowNotFound)
	}
	e.Status = domain.EscrowStatus(status)
	if e.Amount, err = numeric(amount); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *sessionRepository) UpdateEscrow(ctx context.Context, escrowID int64, u ports.EscrowUpdate) error {
	return r.t.exec(ctx, domain.ErrConcurrentUpdate, `
UPDATE escrow_accounts
SET status = $3,
    dispute_reason = COALESCE(NULLIF($4, ''), dispute_reason),
    released_at = COALESCE($5, released_at)
WHERE id = $1 AND status = $2`,
		escrowID, string(u.From), string(u.To), u.DisputeReason, u.ReleasedAt)
}
