package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// RegistrationStore keeps onboarding state as JSON strings whose Redis TTL is
// the registration timeout. Every Put refreshes the TTL.
// Key format: velvet:registration:<external_id>
type RegistrationStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRegistrationStore(client *redis.Client, ttl time.Duration) *RegistrationStore {
	return &RegistrationStore{client: client, ttl: ttl}
}

func (s *RegistrationStore) Get(ctx context.Context, actorID int64) (*domain.RegistrationState, error) {
	raw, err := s.client.Get(ctx, registrationKey(actorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registration get: %w", err)
	}

	var state domain.RegistrationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("registration decode: %w", err)
	}
	return &state, nil
}

func (s *RegistrationStore) Put(ctx context.Context, state *domain.RegistrationState) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("registration encode: %w", err)
	}
	// a zero ttl keeps the key until it is deleted
	if err := s.client.Set(ctx, registrationKey(state.ActorID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("registration put: %w", err)
	}
	return nil
}

func (s *RegistrationStore) Delete(ctx context.Context, actorID int64) error {
	if err := s.client.Del(ctx, registrationKey(actorID)).Err(); err != nil {
		return fmt.Errorf("registration delete: %w", err)
	}
	return nil
}

func registrationKey(actorID int64) string {
	return keyPrefix + "registration:" + strconv.FormatInt(actorID, 10)
}
