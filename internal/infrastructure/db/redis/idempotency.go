package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultIdempotencyTTL = 24 * time.Hour
	// reservationTTL bounds how long a crashed holder can block its key.
	reservationTTL = time.Minute
	pendingValue   = "\x00pending"
)

// IdempotencyStore remembers command results by caller-supplied key. A
// reservation is a SET NX of a pending marker; Complete overwrites it with
// the result.
// Key format: velvet:idem:<scope>:<key>
type IdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewIdempotencyStore wraps client. Results expire after ttl, or after a day
// when ttl is not positive.
func NewIdempotencyStore(client *redis.Client, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl}
}

func (s *IdempotencyStore) Reserve(ctx context.Context, scope, key string) (string, bool, error) {
	k := idempotencyKey(scope, key)
	// A key that expires between SETNX and GET is simply tried again.
	for range 3 {
		ok, err := s.client.SetNX(ctx, k, pendingValue, reservationTTL).Result()
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		if ok {
			return "", true, nil
		}

		v, err := s.client.Get(ctx, k).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return "", false, fmt.Errorf("idempotency reserve: %w", err)
		}
		return storedValue(v), false, nil
	}
	return "", false, fmt.Errorf("idempotency reserve %s: key keeps expiring", k)
}

func (s *IdempotencyStore) Complete(ctx context.Context, scope, key, value string) error {
	if err := s.client.Set(ctx, idempotencyKey(scope, key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency complete: %w", err)
	}
	return nil
}

// Release deletes the key only while it still holds the pending marker.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	err := releaseScript.Run(ctx, s.client, []string{idempotencyKey(scope, key)}, pendingValue).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("idempotency release: %w", err)
	}
	return nil
}

// storedValue hides the pending marker from callers.
func storedValue(v string) string {
	if v == pendingValue {
		return ""
	}
	return v
}

func idempotencyKey(scope, key string) string {
	return keyPrefix + "idem:" + scope + ":" + key
}
