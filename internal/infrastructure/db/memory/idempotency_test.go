package memory

import (
	"context"
	"testing"
	"time"
)

func TestIdempotencyStore_ReserveOnce(t *testing.T) {
	s := NewIdempotencyStore(time.Hour)
	ctx := context.Background()

	if _, ok, _ := s.Reserve(ctx, "session:42", "k1"); !ok {
		t.Fatal("first reserve should win")
	}
	if v, ok, _ := s.Reserve(ctx, "session:42", "k1"); ok || v != "" {
		t.Fatalf("second reserve should see a pending key, got %q %v", v, ok)
	}
	if _, ok, _ := s.Reserve(ctx, "session:43", "k1"); !ok {
		t.Fatal("key leaked across scopes")
	}

	if err := s.Complete(ctx, "session:42", "k1", "sess_00112233aabbccdd"); err != nil {
		t.Fatal(err)
	}
	if v, ok, _ := s.Reserve(ctx, "session:42", "k1"); ok || v != "sess_00112233aabbccdd" {
		t.Fatalf("expected stored ref, got %q %v", v, ok)
	}
}

func TestIdempotencyStore_ReleaseFreesPendingOnly(t *testing.T) {
	s := NewIdempotencyStore(time.Hour)
	ctx := context.Background()

	s.Reserve(ctx, "purchase:1", "k")
	_ = s.Release(ctx, "purchase:1", "k")
	if _, ok, _ := s.Reserve(ctx, "purchase:1", "k"); !ok {
		t.Fatal("released key should be reservable again")
	}

	_ = s.Complete(ctx, "purchase:1", "k", "3:1")
	_ = s.Release(ctx, "purchase:1", "k")
	if v, ok, _ := s.Reserve(ctx, "purchase:1", "k"); ok || v != "3:1" {
		t.Fatalf("release must not drop a completed key, got %q %v", v, ok)
	}
}

func TestIdempotencyStore_Expiry(t *testing.T) {
	s := NewIdempotencyStore(time.Hour)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }
	ctx := context.Background()

	s.Reserve(ctx, "purchase:1", "stale")
	now = now.Add(reservationTTL + time.Second)
	if _, ok, _ := s.Reserve(ctx, "purchase:1", "stale"); !ok {
		t.Fatal("abandoned reservation should expire")
	}

	_ = s.Complete(ctx, "purchase:1", "done", "3:1")
	now = now.Add(2 * time.Hour)
	if _, ok, _ := s.Reserve(ctx, "purchase:1", "done"); !ok {
		t.Fatal("completed key should expire after the ttl")
	}
}
