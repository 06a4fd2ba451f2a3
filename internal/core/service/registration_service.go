package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

const minDisplayNameLen = 2

type registrationService struct {
	store  ports.LedgerStore
	states ports.RegistrationStore
	locks  ports.KeyedLocker
	events ports.EventPublisher
	log    zerolog.Logger
}

// NewRegistrationService returns a RegistrationService. Every call for one
// actor runs under that actor's lock, so a double submit sees the step the
// first submit left behind.
func NewRegistrationService(
	store ports.LedgerStore,
	states ports.RegistrationStore,
	locks ports.KeyedLocker,
	events ports.EventPublisher,
	log zerolog.Logger,
) ports.RegistrationService {
	return &registrationService{
		store:  store,
		states: states,
		locks:  locks,
		events: events,
		log:    log,
	}
}

func (s *registrationService) lock(ctx context.Context, actorID int64) (func(), error) {
	unlock, err := s.locks.Lock(ctx, "registration:"+strconv.FormatInt(actorID, 10))
	if err != nil {
		return nil, fmt.Errorf("registration lock: %w", err)
	}
	return unlock, nil
}

// Begin opens onboarding for role at the email step, replacing whatever
// registration the actor had in progress.
func (s *registrationService) Begin(ctx context.Context, actorID int64, role domain.Role) (*ports.RegistrationResult, error) {
	if !role.Committed() {
		return nil, domain.ErrInvalidRole
	}

	unlock, err := s.lock(ctx, actorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var actor *domain.Actor
	err = view(ctx, s.store, func(ctx context.Context, tx ports.Tx) error {
		actor, err = tx.Actors().FindByExternalID(ctx, actorID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}
	if actor.Role.Committed() && actor.Role != role {
		return nil, domain.ErrAlreadyRegistered
	}

	state := &domain.RegistrationState{
		ActorID:   actorID,
		Role:      role,
		Step:      domain.StepEmail,
		StartedAt: time.Now().UTC(),
	}
	if err := s.states.Put(ctx, state); err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}

	s.log.Info().Int64("external_id", actorID).Str("role", string(role)).Msg("registration started")
	return &ports.RegistrationResult{Pending: true, Role: role, Step: domain.StepEmail}, nil
}

// Submit validates text against the pending step and either advances the
// registration or commits the role. A failed submit leaves the state as is.
func (s *registrationService) Submit(ctx context.Context, actorID int64, text string) (*ports.RegistrationResult, error) {
	unlock, err := s.lock(ctx, actorID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	state, err := s.states.Get(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("submit registration: %w", err)
	}
	if state == nil {
		return &ports.RegistrationResult{}, nil
	}

	text = strings.TrimSpace(text)
	switch state.Step {
	case domain.StepEmail:
		if !looksLikeEmail(text) {
			return nil, domain.ErrInvalidEmail
		}
		switch state.Role {
		case domain.RoleClient:
			if err := s.commit(ctx, state, func(ctx context.Context, tx ports.Tx, actor *domain.Actor, now time.Time) error {
				if err := tx.Actors().SetEmail(ctx, actor.ID, text); err != nil {
					return err
				}
				return tx.Actors().EnsureClientProfile(ctx, actor.ID, now)
			}); err != nil {
				return nil, fmt.Errorf("submit registration: %w", err)
			}
			return &ports.RegistrationResult{Pending: true, Role: state.Role, Completed: true}, nil
		case domain.RoleModel:
			err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
				actor, err := tx.Actors().FindByExternalID(ctx, actorID)
				if err != nil {
					return err
				}
				return tx.Actors().SetEmail(ctx, actor.ID, text)
			})
			if err != nil {
				return nil, fmt.Errorf("submit registration: %w", err)
			}
			next := *state
			next.Step = domain.StepDisplayName
			if err := s.states.Put(ctx, &next); err != nil {
				return nil, fmt.Errorf("submit registration: %w", err)
			}
			return &ports.RegistrationResult{Pending: true, Role: state.Role, Step: domain.StepDisplayName}, nil
		case domain.RoleUnassigned:
		}
	case domain.StepDisplayName:
		if utf8.RuneCountInString(text) < minDisplayNameLen {
			return nil, domain.ErrInvalidDisplayName
		}
		if err := s.commit(ctx, state, func(ctx context.Context, tx ports.Tx, actor *domain.Actor, now time.Time) error {
			return tx.Actors().SaveModelProfile(ctx, actor.ID, text, now)
		}); err != nil {
			return nil, fmt.Errorf("submit registration: %w", err)
		}
		return &ports.RegistrationResult{Pending: true, Role: state.Role, Completed: true}, nil
	}

	// Unreachable with states written by Begin; drop whatever this is.
	if err := s.states.Delete(ctx, actorID); err != nil {
		s.log.Warn().Err(err).Int64("external_id", actorID).Msg("failed to clear registration state")
	}
	return nil, domain.ErrInvalidRole
}

// commit sets the role and runs the profile writes in one transaction, then
// clears the registration.
func (s *registrationService) commit(
	ctx context.Context,
	state *domain.RegistrationState,
	writes func(ctx context.Context, tx ports.Tx, actor *domain.Actor, now time.Time) error,
) error {
	now := time.Now().UTC()
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		actor, err := tx.Actors().FindByExternalID(ctx, state.ActorID)
		if err != nil {
			return err
		}
		if actor.Role.Committed() && actor.Role != state.Role {
			return domain.ErrAlreadyRegistered
		}
		if err := writes(ctx, tx, actor, now); err != nil {
			return err
		}
		return tx.Actors().SetRole(ctx, actor.ID, state.Role, domain.ActorActive)
	})
	if err != nil {
		return err
	}

	if err := s.states.Delete(ctx, state.ActorID); err != nil {
		s.log.Warn().Err(err).Int64("external_id", state.ActorID).Msg("failed to clear registration state")
	}
	s.log.Info().Int64("external_id", state.ActorID).Str("role", string(state.Role)).Msg("registration completed")
	s.events.Publish(domain.Event{
		Type:       domain.EventRoleCommitted,
		Subject:    string(state.Role),
		ActorID:    state.ActorID,
		OccurredAt: now,
	})
	return nil
}

func (s *registrationService) Cancel(ctx context.Context, actorID int64) error {
	unlock, err := s.lock(ctx, actorID)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.states.Delete(ctx, actorID); err != nil {
		return fmt.Errorf("cancel registration: %w", err)
	}
	return nil
}

func (s *registrationService) Pending(ctx context.Context, actorID int64) (*domain.RegistrationState, error) {
	state, err := s.states.Get(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("pending registration: %w", err)
	}
	return state, nil
}

// looksLikeEmail is a syntactic sanity check only.
func looksLikeEmail(s string) bool {
	return strings.Contains(s, "@") && strings.Contains(s, ".")
}
