package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

// AdminSet is the allowlist of external ids with administrator rights.
type AdminSet map[int64]struct{}

func NewAdminSet(ids []int64) AdminSet {
	set := make(AdminSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

func (s AdminSet) Contains(externalID int64) bool {
	_, ok := s[externalID]
	return ok
}

// view runs read-only work, retrying once when the store reports a conflict
// or a connectivity failure.
func view(ctx context.Context, store ports.LedgerStore, fn func(ctx context.Context, tx ports.Tx) error) error {
	err := store.View(ctx, fn)
	if errors.Is(err, domain.ErrStateConflict) || errors.Is(err, domain.ErrUnavailable) {
		err = store.View(ctx, fn)
	}
	return err
}

// requireRole loads the actor for externalID and checks its committed role.
func requireRole(ctx context.Context, tx ports.Tx, externalID int64, role domain.Role) (*domain.Actor, error) {
	actor, err := tx.Actors().FindByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	if actor.Role != role {
		return nil, domain.RoleRequired(role)
	}
	return actor, nil
}

const (
	idempotencyPoll = 25 * time.Millisecond
	idempotencyWait = 10 * time.Second
)

// reserveKey claims an idempotency key. When an earlier call with the same
// key has finished, its stored result is returned with owned=false; while
// that call is still running reserveKey waits for it. With owned=true the
// caller must settle the key with settleKey.
func reserveKey(ctx context.Context, idem ports.IdempotencyStore, scope, key string) (stored string, owned bool, err error) {
	deadline := time.Now().Add(idempotencyWait)
	ticker := time.NewTicker(idempotencyPoll)
	defer ticker.Stop()

	for {
		value, reserved, err := idem.Reserve(ctx, scope, key)
		if err != nil {
			return "", false, err
		}
		if reserved {
			return "", true, nil
		}
		if value != "" {
			return value, false, nil
		}
		if time.Now().After(deadline) {
			return "", false, domain.ErrRequestInFlight
		}
		select {
		case <-ctx.Done():
			return "", false, ctx.Err()
		case <-ticker.C:
		}
	}
}

// settleKey stores value under an owned key, or frees the key when the
// command failed so a retry can run it.
func settleKey(ctx context.Context, idem ports.IdempotencyStore, log zerolog.Logger, scope, key, value string, cmdErr error) {
	ctx = context.WithoutCancel(ctx)
	if cmdErr != nil {
		if err := idem.Release(ctx, scope, key); err != nil {
			log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to release idempotency key")
		}
		return
	}
	if err := idem.Complete(ctx, scope, key, value); err != nil {
		log.Warn().Err(err).Str("idempotency_key", key).Msg("failed to store idempotency key")
	}
}

// keyUnusable reports whether a reserveKey failure must abort the command.
// Store outages do not: the command then runs without replay protection.
func keyUnusable(ctx context.Context, err error) bool {
	return errors.Is(err, domain.ErrStateConflict) || ctx.Err() != nil
}
