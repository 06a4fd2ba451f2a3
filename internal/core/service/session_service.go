package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

const sessionRefPrefix = "sess_"

type SessionService struct {
	store  ports.LedgerStore
	idem   ports.IdempotencyStore
	events ports.EventPublisher
	admins AdminSet
	logger zerolog.Logger
}

func NewSessionService(
	store ports.LedgerStore,
	idem ports.IdempotencyStore,
	events ports.EventPublisher,
	admins AdminSet,
	logger zerolog.Logger,
) *SessionService {
	return &SessionService{store: store, idem: idem, events: events, admins: admins, logger: logger}
}

// CreateSession books a session and opens its escrow hold in one transaction.
// With an idempotency key only the first caller books; concurrent and later
// calls with the same key get that booking back without side effects.
func (s *SessionService) CreateSession(ctx context.Context, input ports.CreateSessionInput) (*ports.SessionDetail, error) {
	price, err := domain.ParseAmount(input.Price)
	if err != nil {
		return nil, err
	}
	sessionType := strings.TrimSpace(input.SessionType)
	if sessionType == "" {
		return nil, domain.ErrEmptySessionType
	}
	if input.ClientID == input.ModelID {
		return nil, domain.ErrSameActor
	}

	scope := "session:" + strconv.FormatInt(input.ClientID, 10)
	keyOwned := false
	if input.IdempotencyKey != "" {
		ref, owned, err := reserveKey(ctx, s.idem, scope, input.IdempotencyKey)
		switch {
		case err != nil && keyUnusable(ctx, err):
			return nil, fmt.Errorf("create session: %w", err)
		case err != nil:
			s.logger.Warn().Err(err).Str("idempotency_key", input.IdempotencyKey).Msg("idempotency reserve failed, booking anyway")
		case !owned:
			detail, err := s.load(ctx, ref)
			if err != nil {
				return nil, fmt.Errorf("create session: replay %s: %w", ref, err)
			}
			s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Str("session_ref", ref).Msg("idempotent replay")
			detail.AlreadyExisted = true
			return detail, nil
		default:
			keyOwned = true
		}
	}

	now := time.Now().UTC()
	session := &domain.Session{
		Ref:          newSessionRef(),
		Type:         sessionType,
		PackagePrice: price,
		Status:       domain.SessionPending,
		CreatedAt:    now,
	}
	escrow := &domain.EscrowAccount{
		Amount:    price,
		Status:    domain.EscrowHeld,
		CreatedAt: now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		client, err := requireRole(ctx, tx, input.ClientID, domain.RoleClient)
		if err != nil {
			return err
		}
		model, err := tx.Actors().FindByExternalID(ctx, input.ModelID)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		if model == nil || model.Role != domain.RoleModel {
			return domain.ErrModelNotFound
		}
		if client.ID == model.ID {
			return domain.ErrSameActor
		}
		session.ClientID = client.ID
		session.ModelID = model.ID
		return tx.Sessions().Create(ctx, session, escrow)
	})
	if keyOwned {
		settleKey(ctx, s.idem, s.logger, scope, input.IdempotencyKey, session.Ref, err)
	}
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info().
		Str("session_ref", session.Ref).
		Int64("client_id", input.ClientID).
		Int64("model_id", input.ModelID).
		Str("price", price.StringFixed(2)).
		Msg("session created")

	s.publish(domain.EventSessionCreated, session.Ref, input.ClientID, map[string]string{
		"session_type": session.Type,
		"amount":       price.StringFixed(2),
		"model_id":     strconv.FormatInt(input.ModelID, 10),
	})
	return &ports.SessionDetail{Session: *session, Escrow: *escrow}, nil
}

// StartSession moves a pending session to active. Only the session's model may start it.
func (s *SessionService) StartSession(ctx context.Context, ref string, actorID int64) (*ports.SessionDetail, error) {
	return s.modelTransition(ctx, ref, actorID, "start", domain.SessionActive, domain.EventSessionStarted)
}

// EndSession moves an active session to completed. Only the session's model may end it.
func (s *SessionService) EndSession(ctx context.Context, ref string, actorID int64) (*ports.SessionDetail, error) {
	return s.modelTransition(ctx, ref, actorID, "end", domain.SessionCompleted, domain.EventSessionEnded)
}

func (s *SessionService) modelTransition(
	ctx context.Context,
	ref string,
	actorID int64,
	action string,
	to domain.SessionStatus,
	event domain.EventType,
) (*ports.SessionDetail, error) {
	var detail *ports.SessionDetail
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		actor, err := tx.Actors().FindByExternalID(ctx, actorID)
		if err != nil {
			return err
		}
		session, err := tx.Sessions().FindByRef(ctx, ref)
		if err != nil {
			return err
		}
		if session.ModelID != actor.ID {
			return domain.OnlyModelCan(action)
		}
		if !session.Status.CanTransitionTo(to) {
			return domain.SessionStateError(action, session.Status)
		}

		now := time.Now().UTC()
		if err := tx.Sessions().UpdateStatus(ctx, session.ID, session.Status, to, now); err != nil {
			return err
		}
		session.Status = to
		switch to {
		case domain.SessionActive:
			session.ActualStart = &now
		case domain.SessionCompleted:
			session.EndedAt = &now
		case domain.SessionPending, domain.SessionDisputed:
		}

		escrow, err := tx.Sessions().FindEscrow(ctx, session.ID)
		if err != nil {
			return err
		}
		detail = &ports.SessionDetail{Session: *session, Escrow: *escrow}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s session: %w", action, err)
	}

	s.logger.Info().Str("session_ref", ref).Str("status", string(to)).Msg("session status changed")
	s.publish(event, ref, actorID, map[string]string{"status": string(to)})
	return detail, nil
}

// DisputeSession puts the session and its escrow into dispute. Either
// participant may dispute while the escrow has not been released.
func (s *SessionService) DisputeSession(ctx context.Context, ref string, actorID int64, reason string) (*ports.SessionDetail, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, domain.ErrEmptyReason
	}

	var detail *ports.SessionDetail
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		actor, err := tx.Actors().FindByExternalID(ctx, actorID)
		if err != nil {
			return err
		}
		session, err := tx.Sessions().FindByRef(ctx, ref)
		if err != nil {
			return err
		}
		if !session.IsParticipant(actor.ID) {
			return domain.ErrNotParticipant
		}
		escrow, err := tx.Sessions().FindEscrow(ctx, session.ID)
		if err != nil {
			return err
		}
		if !session.Status.CanTransitionTo(domain.SessionDisputed) {
			return domain.SessionStateError("dispute", session.Status)
		}
		if !escrow.Status.CanTransitionTo(domain.EscrowDisputed) {
			return domain.EscrowStateError("dispute", escrow.Status)
		}

		now := time.Now().UTC()
		if err := tx.Sessions().UpdateStatus(ctx, session.ID, session.Status, domain.SessionDisputed, now); err != nil {
			return err
		}
		if err := tx.Sessions().UpdateEscrow(ctx, escrow.ID, ports.EscrowUpdate{
			From:          escrow.Status,
			To:            domain.EscrowDisputed,
			DisputeReason: reason,
		}); err != nil {
			return err
		}
		session.Status = domain.SessionDisputed
		escrow.Status = domain.EscrowDisputed
		escrow.DisputeReason = reason
		detail = &ports.SessionDetail{Session: *session, Escrow: *escrow}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dispute session: %w", err)
	}

	s.logger.Info().Str("session_ref", ref).Int64("actor_id", actorID).Msg("dispute opened")
	s.publish(domain.EventDisputeOpened, ref, actorID, map[string]string{
		"reason": reason,
		"amount": detail.Escrow.Amount.StringFixed(2),
	})
	return detail, nil
}

// ReleaseEscrow releases the escrow hold of a session. It may be called any
// number of times; the model is credited only on the first release. Each call
// is recorded in the admin audit log within the same transaction.
func (s *SessionService) ReleaseEscrow(ctx context.Context, ref string, adminID int64) (*ports.SessionDetail, error) {
	if !s.admins.Contains(adminID) {
		return nil, domain.ErrNotAdmin
	}

	var (
		detail   *ports.SessionDetail
		previous domain.EscrowStatus
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.Sessions().FindByRef(ctx, ref)
		if err != nil {
			return err
		}
		escrow, err := tx.Sessions().FindEscrow(ctx, session.ID)
		if err != nil {
			return err
		}
		previous = escrow.Status
		if !previous.CanTransitionTo(domain.EscrowReleased) {
			return domain.EscrowStateError("release", previous)
		}

		now := time.Now().UTC()
		update := ports.EscrowUpdate{From: previous, To: domain.EscrowReleased}
		first := previous != domain.EscrowReleased
		if first {
			update.ReleasedAt = &now
		}
		if err := tx.Sessions().UpdateEscrow(ctx, escrow.ID, update); err != nil {
			return err
		}
		if first {
			if err := tx.Actors().AddModelEarnings(ctx, session.ModelID, escrow.Amount); err != nil {
				return err
			}
			escrow.ReleasedAt = &now
		}
		escrow.Status = domain.EscrowReleased

		if err := tx.Audit().Record(ctx, &domain.AdminAction{
			AdminID:       adminID,
			ActionType:    domain.ActionReleaseEscrow,
			TargetActorID: session.ModelID,
			TargetType:    domain.TargetSession,
			TargetID:      session.ID,
			Details: map[string]string{
				"session_ref":     session.Ref,
				"previous_status": string(previous),
				"amount":          escrow.Amount.StringFixed(2),
			},
			CreatedAt: now,
		}); err != nil {
			return err
		}

		detail = &ports.SessionDetail{Session: *session, Escrow: *escrow}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("release escrow: %w", err)
	}

	s.logger.Info().
		Str("session_ref", ref).
		Int64("admin_id", adminID).
		Str("previous_status", string(previous)).
		Msg("escrow released")

	s.publish(domain.EventEscrowReleased, ref, adminID, map[string]string{
		"amount":          detail.Escrow.Amount.StringFixed(2),
		"previous_status": string(previous),
	})
	return detail, nil
}

// GetSession returns the session with its escrow to a participant or an admin.
func (s *SessionService) GetSession(ctx context.Context, ref string, actorID int64) (*ports.SessionDetail, error) {
	admin := s.admins.Contains(actorID)
	var detail *ports.SessionDetail
	err := view(ctx, s.store, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.Sessions().FindByRef(ctx, ref)
		if err != nil {
			return err
		}
		if !admin {
			actor, err := tx.Actors().FindByExternalID(ctx, actorID)
			if err != nil {
				return err
			}
			if !session.IsParticipant(actor.ID) {
				return domain.ErrNotParticipant
			}
		}
		escrow, err := tx.Sessions().FindEscrow(ctx, session.ID)
		if err != nil {
			return err
		}
		detail = &ports.SessionDetail{Session: *session, Escrow: *escrow}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return detail, nil
}

// ListSessions returns the sessions the actor takes part in, newest first.
func (s *SessionService) ListSessions(ctx context.Context, actorID int64, limit int) ([]ports.SessionDetail, error) {
	var out []ports.SessionDetail
	err := view(ctx, s.store, func(ctx context.Context, tx ports.Tx) error {
		actor, err := tx.Actors().FindByExternalID(ctx, actorID)
		if err != nil {
			return err
		}
		sessions, err := tx.Sessions().ListByActor(ctx, actor.ID, limit)
		if err != nil {
			return err
		}
		out = make([]ports.SessionDetail, 0, len(sessions))
		for _, session := range sessions {
			escrow, err := tx.Sessions().FindEscrow(ctx, session.ID)
			if err != nil {
				return err
			}
			out = append(out, ports.SessionDetail{Session: *session, Escrow: *escrow})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

func (s *SessionService) load(ctx context.Context, ref string) (*ports.SessionDetail, error) {
	var detail *ports.SessionDetail
	err := view(ctx, s.store, func(ctx context.Context, tx ports.Tx) error {
		session, err := tx.Sessions().FindByRef(ctx, ref)
		if err != nil {
			return err
		}
		escrow, err := tx.Sessions().FindEscrow(ctx, session.ID)
		if err != nil {
			return err
		}
		detail = &ports.SessionDetail{Session: *session, Escrow: *escrow}
		return nil
	})
	return detail, err
}

func (s *SessionService) publish(t domain.EventType, ref string, actorID int64, payload map[string]string) {
	s.events.Publish(domain.Event{
		Type:       t,
		Subject:    ref,
		ActorID:    actorID,
		Payload:    payload,
		OccurredAt: time.Now().UTC(),
	})
}

// newSessionRef returns an unguessable session reference in the format sess_<16 hex>.
func newSessionRef() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return sessionRefPrefix + hex.EncodeToString(b)
}
