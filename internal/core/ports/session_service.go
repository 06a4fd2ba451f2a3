package ports

import (
	"context"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// CreateSessionInput carries the data needed to book a session.
// Actor ids are external ids.
type CreateSessionInput struct {
	ClientID       int64
	ModelID        int64
	SessionType    string
	Price          string
	IdempotencyKey string
}

// SessionDetail is a session together with its escrow account.
type SessionDetail struct {
	Session domain.Session
	Escrow  domain.EscrowAccount
	// AlreadyExisted is true when the idempotency key matched an earlier booking.
	AlreadyExisted bool
}

// SessionService defines the session and escrow lifecycle operations.
// Actor ids are external ids.
type SessionService interface {
	CreateSession(ctx context.Context, input CreateSessionInput) (*SessionDetail, error)
	StartSession(ctx context.Context, ref string, actorID int64) (*SessionDetail, error)
	EndSession(ctx context.Context, ref string, actorID int64) (*SessionDetail, error)
	DisputeSession(ctx context.Context, ref string, actorID int64, reason string) (*SessionDetail, error)
	ReleaseEscrow(ctx context.Context, ref string, adminID int64) (*SessionDetail, error)
	GetSession(ctx context.Context, ref string, actorID int64) (*SessionDetail, error)
	ListSessions(ctx context.Context, actorID int64, limit int) ([]SessionDetail, error)
}
