package ports

import (
	"context"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// RegistrationStore keeps ephemeral onboarding state keyed by actor external id.
type RegistrationStore interface {
	// Get returns nil and no error when no registration is pending.
	Get(ctx context.Context, actorID int64) (*domain.RegistrationState, error)
	// Put stores the state, replacing any previous one, and refreshes its expiry.
	Put(ctx context.Context, state *domain.RegistrationState) error
	Delete(ctx context.Context, actorID int64) error
}

// KeyedLocker serialises work per key. Different keys do not contend.
type KeyedLocker interface {
	// Lock blocks until key is held or ctx is done. The returned func releases it.
	Lock(ctx context.Context, key string) (func(), error)
}
