package ports

import (
	"context"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// ActorService resolves transport identities into actors.
type ActorService interface {
	// GetOrCreateActor returns the actor for externalID, creating it with role
	// unassigned on first contact. Profile hints are refreshed on every call.
	GetOrCreateActor(ctx context.Context, externalID int64, hints domain.ProfileHints) (*domain.Actor, error)
	// SwitchRole moves an actor with a committed role to the other role.
	SwitchRole(ctx context.Context, externalID int64, role domain.Role) (*domain.Actor, error)
	IsAdmin(externalID int64) bool
}
