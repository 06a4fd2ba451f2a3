package ports

import (
	"context"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// RegistrationResult reports where an actor stands after a registration call.
type RegistrationResult struct {
	// Pending is false when Submit found no registration to advance.
	Pending   bool
	Role      domain.Role
	Step      domain.RegistrationStep
	Completed bool
}

// RegistrationService drives the onboarding state machine.
type RegistrationService interface {
	Begin(ctx context.Context, actorID int64, role domain.Role) (*RegistrationResult, error)
	Submit(ctx context.Context, actorID int64, text string) (*RegistrationResult, error)
	Cancel(ctx context.Context, actorID int64) error
	// Pending returns nil when the actor has no registration in progress.
	Pending(ctx context.Context, actorID int64) (*domain.RegistrationState, error)
}
