package memory

import (
	"context"
	"testing"
	"time"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

func TestRegistrationStore_ExpiresLazily(t *testing.T) {
	s := NewRegistrationStore(30 * time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	s.Put(ctx, &domain.RegistrationState{ActorID: 1, Role: domain.RoleClient, Step: domain.StepEmail})

	now = now.Add(29 * time.Minute)
	if st, _ := s.Get(ctx, 1); st == nil {
		t.Fatal("state expired too early")
	}

	now = now.Add(2 * time.Minute)
	if st, _ := s.Get(ctx, 1); st != nil {
		t.Errorf("expected expiry, got %+v", st)
	}
}

func TestRegistrationStore_PutRefreshesExpiry(t *testing.T) {
	s := NewRegistrationStore(30 * time.Minute)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	s.Put(ctx, &domain.RegistrationState{ActorID: 1, Role: domain.RoleModel, Step: domain.StepEmail})
	now = now.Add(20 * time.Minute)
	s.Put(ctx, &domain.RegistrationState{ActorID: 1, Role: domain.RoleModel, Step: domain.StepDisplayName})
	now = now.Add(20 * time.Minute)

	st, _ := s.Get(ctx, 1)
	if st == nil || st.Step != domain.StepDisplayName {
		t.Errorf("expected refreshed state, got %+v", st)
	}
}

func TestRegistrationStore_Delete(t *testing.T) {
	s := NewRegistrationStore(0)
	ctx := context.Background()

	s.Put(ctx, &domain.RegistrationState{ActorID: 1, Role: domain.RoleClient, Step: domain.StepEmail})
	s.Delete(ctx, 1)
	if st, _ := s.Get(ctx, 1); st != nil {
		t.Errorf("expected nil after delete, got %+v", st)
	}
}

func TestStripedLocker_SerializesSameKey(t *testing.T) {
	l := NewStripedLocker(4)
	ctx := context.Background()

	unlock, err := l.Lock(ctx, "registration:1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	timeout, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(timeout, "registration:1"); err == nil {
		t.Fatal("second lock on the same key must block")
	}

	unlock()
	unlock2, err := l.Lock(ctx, "registration:1")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	unlock2()
}
