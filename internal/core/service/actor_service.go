package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

type ActorService struct {
	store  ports.LedgerStore
	admins AdminSet
	events ports.EventPublisher
	logger zerolog.Logger
}

func NewActorService(store ports.LedgerStore, admins AdminSet, events ports.EventPublisher, logger zerolog.Logger) *ActorService {
	return &ActorService{store: store, admins: admins, events: events, logger: logger}
}

// GetOrCreateActor resolves the transport identity into an actor. Two first
// contacts racing on the same external id both end up with the same row.
func (s *ActorService) GetOrCreateActor(ctx context.Context, externalID int64, hints domain.ProfileHints) (*domain.Actor, error) {
	actor, err := s.getOrCreate(ctx, externalID, hints)
	if errors.Is(err, domain.ErrStateConflict) {
		actor, err = s.getOrCreate(ctx, externalID, hints)
	}
	if err != nil {
		return nil, fmt.Errorf("get or create actor: %w", err)
	}
	return actor, nil
}

func (s *ActorService) getOrCreate(ctx context.Context, externalID int64, hints domain.ProfileHints) (*domain.Actor, error) {
	var out *domain.Actor
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		actor, err := tx.Actors().FindByExternalID(ctx, externalID)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			actor = &domain.Actor{
				ExternalID:    externalID,
				Username:      hints.Username,
				FirstName:     hints.FirstName,
				LastName:      hints.LastName,
				Role:          domain.RoleUnassigned,
				Status:        domain.ActorInactive,
				WalletBalance: decimal.Zero,
				CreatedAt:     time.Now().UTC(),
			}
			if err := tx.Actors().Create(ctx, actor); err != nil {
				return err
			}
			s.logger.Info().Int64("external_id", externalID).Msg("actor created")
		case err != nil:
			return err
		case actor.Username != hints.Username || actor.FirstName != hints.FirstName || actor.LastName != hints.LastName:
			if err := tx.Actors().UpdateProfile(ctx, actor.ID, hints); err != nil {
				return err
			}
			actor.Username, actor.FirstName, actor.LastName = hints.Username, hints.FirstName, hints.LastName
		}
		out = actor
		return nil
	})
	return out, err
}

// SwitchRole moves an onboarded actor between client and model, creating the
// target profile if this is the first time the actor holds that role.
func (s *ActorService) SwitchRole(ctx context.Context, externalID int64, role domain.Role) (*domain.Actor, error) {
	if !role.Committed() {
		return nil, domain.ErrInvalidRole
	}

	var (
		out     *domain.Actor
		changed bool
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		actor, err := tx.Actors().FindByExternalID(ctx, externalID)
		if err != nil {
			return err
		}
		if !actor.Role.Committed() {
			return domain.ErrRoleNotCommitted
		}
		out = actor
		if actor.Role == role {
			return nil
		}

		now := time.Now().UTC()
		switch role {
		case domain.RoleClient:
			err = tx.Actors().EnsureClientProfile(ctx, actor.ID, now)
		case domain.RoleModel:
			err = tx.Actors().EnsureModelProfile(ctx, actor.ID, actor.DefaultDisplayName(), now)
		case domain.RoleUnassigned:
			err = domain.ErrInvalidRole
		}
		if err != nil {
			return err
		}
		if err := tx.Actors().SetRole(ctx, actor.ID, role, domain.ActorActive); err != nil {
			return err
		}
		actor.Role, actor.Status = role, domain.ActorActive
		changed = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("switch role: %w", err)
	}

	if changed {
		s.logger.Info().Int64("external_id", externalID).Str("role", string(role)).Msg("role switched")
		s.events.Publish(domain.Event{
			Type:       domain.EventRoleCommitted,
			Subject:    string(role),
			ActorID:    externalID,
			OccurredAt: time.Now().UTC(),
		})
	}
	return out, nil
}

func (s *ActorService) IsAdmin(externalID int64) bool {
	return s.admins.Contains(externalID)
}
