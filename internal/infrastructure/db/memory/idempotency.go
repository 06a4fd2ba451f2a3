package memory

import (
	"context"
	"sync"
	"time"
)

// reservationTTL bounds how long an uncompleted reservation blocks its key.
const reservationTTL = time.Minute

type idemEntry struct {
	value   string
	pending bool
	expires time.Time
}

// IdempotencyStore is an in-process ports.IdempotencyStore with a fixed TTL.
type IdempotencyStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]idemEntry
	now     func() time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{ttl: ttl, entries: make(map[string]idemEntry), now: time.Now}
}

func (s *IdempotencyStore) Reserve(_ context.Context, scope, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := scope + ":" + key
	now := s.now()
	if e, ok := s.entries[k]; ok && now.Before(e.expires) {
		if e.pending {
			return "", false, nil
		}
		return e.value, false, nil
	}
	s.entries[k] = idemEntry{pending: true, expires: now.Add(reservationTTL)}
	return "", true, nil
}

func (s *IdempotencyStore) Complete(_ context.Context, scope, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[scope+":"+key] = idemEntry{value: value, expires: s.now().Add(s.ttl)}
	return nil
}

// Release drops the key only while it is still pending.
func (s *IdempotencyStore) Release(_ context.Context, scope, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := scope + ":" + key
	if e, ok := s.entries[k]; ok && e.pending {
		delete(s.entries, k)
	}
	return nil
}
