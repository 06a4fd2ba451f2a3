package postgres

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

const actorColumns = `id, external_id, username, first_name, last_name, email, role, status, wallet_balance::text, created_at`

type actorRepository struct {
	t *tx
}

func (r *actorRepository) findOne(ctx context.Context, where string, arg any) (*domain.Actor, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	var (
		a       domain.Actor
		role    string
		status  string
		balance string
	)
	err := r.t.q.QueryRow(ctx, `SELECT `+actorColumns+` FROM users WHERE `+where, arg).Scan(
		&a.ID, &a.ExternalID, &a.Username, &a.FirstName, &a.LastName, &a.Email,
		&role, &status, &balance, &a.CreatedAt,
	)
	if err != nil {
		return nil, noRows(err, domain.ErrActorNotFound)
	}
	a.Role = domain.Role(role)
	a.Status = domain.ActorStatus(status)
	if a.WalletBalance, err = numeric(balance); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *actorRepository) FindByExternalID(ctx context.Context, externalID int64) (*domain.Actor, error) {
	return r.findOne(ctx, "external_id = $1", externalID)
}

func (r *actorRepository) FindByID(ctx context.Context, id int64) (*domain.Actor, error) {
	return r.findOne(ctx, "id = $1", id)
}

// Create inserts the actor. A duplicate external id surfaces as a unique
// violation, which classify reports as a concurrent update.
func (r *actorRepository) Create(ctx context.Context, a *domain.Actor) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	return r.t.q.QueryRow(ctx, `
INSERT INTO users (external_id, username, first_name, last_name, email, role, status, wallet_balance, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9)
RETURNING id`,
		a.ExternalID, a.Username, a.FirstName, a.LastName, a.Email,
		string(a.Role), string(a.Status), a.WalletBalance.String(), a.CreatedAt,
	).Scan(&a.ID)
}

func (r *actorRepository) UpdateProfile(ctx context.Context, id int64, hints domain.ProfileHints) error {
	return r.t.exec(ctx, domain.ErrActorNotFound,
		`UPDATE users SET username = $2, first_name = $3, last_name = $4 WHERE id = $1`,
		id, hints.Username, hints.FirstName, hints.LastName)
}

func (r *actorRepository) SetEmail(ctx context.Context, id int64, email string) error {
	return r.t.exec(ctx, domain.ErrActorNotFound,
		`UPDATE users SET email = $2 WHERE id = $1`, id, email)
}

func (r *actorRepository) SetRole(ctx context.Context, id int64, role domain.Role, status domain.ActorStatus) error {
	return r.t.exec(ctx, domain.ErrActorNotFound,
		`UPDATE users SET role = $2, status = $3 WHERE id = $1`, id, string(role), string(status))
}

func (r *actorRepository) FindModelProfile(ctx context.Context, actorID int64) (*domain.ModelProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	var (
		p        domain.ModelProfile
		earnings string
	)
	err := r.t.q.QueryRow(ctx, `
SELECT user_id, display_name, verification_status, total_earnings::text, created_at
FROM model_profiles WHERE user_id = $1`, actorID).Scan(
		&p.ActorID, &p.DisplayName, &p.VerificationStatus, &earnings, &p.CreatedAt,
	)
	if err != nil {
		return nil, noRows(err, domain.ErrNotFound)
	}
	if p.TotalEarnings, err = numeric(earnings); err != nil {
		return nil, err
	}
	return &p, nil
}

// SaveModelProfile upserts the profile; only the display name changes on an
// existing row.
func (r *actorRepository) SaveModelProfile(ctx context.Context, actorID int64, displayName string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	_, err := r.t.q.Exec(ctx, `
INSERT INTO model_profiles (user_id, display_name, verification_status, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO UPDATE SET display_name = EXCLUDED.display_name`,
		actorID, displayName, domain.VerificationPending, now)
	return err
}

func (r *actorRepository) EnsureModelProfile(ctx context.Context, actorID int64, displayName string, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	_, err := r.t.q.Exec(ctx, `
INSERT INTO model_profiles (user_id, display_name, verification_status, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (user_id) DO NOTHING`,
		actorID, displayName, domain.VerificationPending, now)
	return err
}

func (r *actorRepository) EnsureClientProfile(ctx context.Context, actorID int64, now time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	_, err := r.t.q.Exec(ctx, `
INSERT INTO client_profiles (user_id, created_at) VALUES ($1, $2)
ON CONFLICT (user_id) DO NOTHING`, actorID, now)
	return err
}

func (r *actorRepository) FindClientProfile(ctx context.Context, actorID int64) (*domain.ClientProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	var (
		p     domain.ClientProfile
		spent string
	)
	err := r.t.q.QueryRow(ctx,
		`SELECT user_id, total_spent::text, created_at FROM client_profiles WHERE user_id = $1`,
		actorID).Scan(&p.ActorID, &spent, &p.CreatedAt)
	if err != nil {
		return nil, noRows(err, domain.ErrNotFound)
	}
	if p.TotalSpent, err = numeric(spent); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddModelEarnings is a no-op for actors without a model profile.
func (r *actorRepository) AddModelEarnings(ctx context.Context, actorID int64, amount decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	_, err := r.t.q.Exec(ctx,
		`UPDATE model_profiles SET total_earnings = total_earnings + $2::numeric WHERE user_id = $1`,
		actorID, amount.String())
	return err
}

func (r *actorRepository) AddClientSpend(ctx context.Context, actorID int64, amount decimal.Decimal) error {
	ctx, cancel := context.WithTimeout(ctx, r.t.timeout)
	defer cancel()

	_, err := r.t.q.Exec(ctx,
		`UPDATE client_profiles SET total_spent = total_spent + $2::numeric WHERE user_id = $1`,
		actorID, amount.String())
	return err
}
