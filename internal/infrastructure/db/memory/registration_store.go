package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// RegistrationStore keeps onboarding state in a map. Entries older than the
// TTL are dropped lazily on read.
type RegistrationStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	states map[int64]domain.RegistrationState
}

func NewRegistrationStore(ttl time.Duration) *RegistrationStore {
	return &RegistrationStore{
		ttl:    ttl,
		now:    time.Now,
		states: make(map[int64]domain.RegistrationState),
	}
}

func (s *RegistrationStore) Get(_ context.Context, actorID int64) (*domain.RegistrationState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[actorID]
	if !ok {
		return nil, nil
	}
	if st.Expired(s.now(), s.ttl) {
		delete(s.states, actorID)
		return nil, nil
	}
	return &st, nil
}

func (s *RegistrationStore) Put(_ context.Context, state *domain.RegistrationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := *state
	// expiry is measured from the last write
	st.StartedAt = s.now()
	s.states[state.ActorID] = st
	return nil
}

func (s *RegistrationStore) Delete(_ context.Context, actorID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, actorID)
	return nil
}
