package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type migration struct {
	version string
	name    string
	up      string
}

// migrations run in order; each one runs at most once per database.
var migrations = []migration{
	{
		version: "20240101000001",
		name:    "create_users",
		up: `
CREATE TABLE IF NOT EXISTS users (
    id             BIGSERIAL PRIMARY KEY,
    external_id    BIGINT NOT NULL,
    username       TEXT NOT NULL DEFAULT '',
    first_name     TEXT NOT NULL DEFAULT '',
    last_name      TEXT NOT NULL DEFAULT '',
    email          TEXT NOT NULL DEFAULT '',
    role           TEXT NOT NULL DEFAULT 'unassigned',
    status         TEXT NOT NULL DEFAULT 'inactive',
    wallet_balance NUMERIC(14,2) NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_external_id ON users (external_id);

CREATE TABLE IF NOT EXISTS model_profiles (
    user_id             BIGINT PRIMARY KEY REFERENCES users (id),
    display_name        TEXT NOT NULL,
    verification_status TEXT NOT NULL DEFAULT 'pending',
    total_earnings      NUMERIC(14,2) NOT NULL DEFAULT 0,
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS client_profiles (
    user_id     BIGINT PRIMARY KEY REFERENCES users (id),
    total_spent NUMERIC(14,2) NOT NULL DEFAULT 0,
    created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
	{
		version: "20240101000002",
		name:    "create_sessions",
		up: `
CREATE TABLE IF NOT EXISTS sessions (
    id            BIGSERIAL PRIMARY KEY,
    session_ref   TEXT NOT NULL,
    client_id     BIGINT NOT NULL REFERENCES users (id),
    model_id      BIGINT NOT NULL REFERENCES users (id),
    session_type  TEXT NOT NULL,
    package_price NUMERIC(14,2) NOT NULL CHECK (package_price > 0),
    status        TEXT NOT NULL DEFAULT 'pending',
    actual_start  TIMESTAMPTZ,
    ended_at      TIMESTAMPTZ,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CHECK (client_id <> model_id)
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_ref ON sessions (session_ref);
CREATE INDEX IF NOT EXISTS idx_sessions_client ON sessions (client_id, id DESC);
CREATE INDEX IF NOT EXISTS idx_sessions_model ON sessions (model_id, id DESC);

CREATE TABLE IF NOT EXISTS escrow_accounts (
    id             BIGSERIAL PRIMARY KEY,
    session_id     BIGINT NOT NULL REFERENCES sessions (id),
    amount         NUMERIC(14,2) NOT NULL,
    status         TEXT NOT NULL DEFAULT 'held',
    dispute_reason TEXT NOT NULL DEFAULT '',
    released_at    TIMESTAMPTZ,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_escrow_session ON escrow_accounts (session_id);
`,
	},
	{
		version: "20240101000003",
		name:    "create_content",
		up: `
CREATE TABLE IF NOT EXISTS digital_content (
    id            BIGSERIAL PRIMARY KEY,
    model_id      BIGINT NOT NULL REFERENCES users (id),
    content_type  TEXT NOT NULL,
    title         TEXT NOT NULL,
    description   TEXT NOT NULL DEFAULT '',
    price         NUMERIC(14,2) NOT NULL CHECK (price > 0),
    is_active     BOOLEAN NOT NULL DEFAULT TRUE,
    total_sales   BIGINT NOT NULL DEFAULT 0,
    total_revenue NUMERIC(14,2) NOT NULL DEFAULT 0,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_content_model ON digital_content (model_id, id);
CREATE INDEX IF NOT EXISTS idx_content_active ON digital_content (id) WHERE is_active;

CREATE TABLE IF NOT EXISTS content_purchases (
    id           BIGSERIAL PRIMARY KEY,
    content_id   BIGINT NOT NULL REFERENCES digital_content (id),
    client_id    BIGINT NOT NULL REFERENCES users (id),
    price_paid   NUMERIC(14,2) NOT NULL,
    purchased_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_purchases_content ON content_purchases (content_id);
`,
	},
	{
		version: "20240101000004",
		name:    "create_admin_actions",
		up: `
CREATE TABLE IF NOT EXISTS admin_actions (
    id             BIGSERIAL PRIMARY KEY,
    admin_id       BIGINT NOT NULL,
    action_type    TEXT NOT NULL,
    target_user_id BIGINT,
    target_type    TEXT NOT NULL,
    target_id      BIGINT NOT NULL,
    details        JSONB NOT NULL DEFAULT '{}',
    created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`,
	},
}

// Migrate applies every migration not yet recorded in schema_migrations.
func (s *LedgerStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
    version    TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`); err != nil {
		return fmt.Errorf("postgres: create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			tag, err := tx.Exec(ctx,
				`INSERT INTO schema_migrations (version, name) VALUES ($1, $2) ON CONFLICT (version) DO NOTHING`,
				m.version, m.name)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return nil
			}
			_, err = tx.Exec(ctx, m.up)
			return err
		})
		if err != nil {
			return fmt.Errorf("postgres: migration %s failed: %w", m.name, err)
		}
	}
	return nil
}
