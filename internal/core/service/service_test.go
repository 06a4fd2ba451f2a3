package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
	"github.com/Davelummy/velvet-rooms-project/internal/infrastructure/db/memory"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.Event
}

func (p *recordingPublisher) Publish(e domain.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

// failingStore rejects every write transaction while still serving reads.
type failingStore struct {
	*memory.LedgerStore
	err error
}

func (s *failingStore) WithinTx(context.Context, func(ctx context.Context, tx ports.Tx) error) error {
	return s.err
}

// slowStore holds every write transaction back by delay so concurrent
// callers overlap.
type slowStore struct {
	*memory.LedgerStore
	delay time.Duration
}

func (s *slowStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	time.Sleep(s.delay)
	return s.LedgerStore.WithinTx(ctx, fn)
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

const (
	clientExt = int64(42)
	modelExt  = int64(7)
	adminExt  = int64(1000)
)

var discardLogger = zerolog.Nop()

type fixture struct {
	store    *memory.LedgerStore
	events   *recordingPublisher
	sessions *SessionService
	content  *ContentService
	actors   *ActorService
	audit    ports.AuditService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewLedgerStore()
	events := &recordingPublisher{}
	admins := NewAdminSet([]int64{adminExt})
	idem := memory.NewIdempotencyStore(time.Hour)

	f := &fixture{
		store:    store,
		events:   events,
		sessions: NewSessionService(store, idem, events, admins, discardLogger),
		content:  NewContentService(store, idem, events, discardLogger),
		actors:   NewActorService(store, admins, events, discardLogger),
		audit:    NewAuditService(store, admins, discardLogger),
	}
	f.seedActor(t, clientExt, domain.RoleClient)
	f.seedActor(t, modelExt, domain.RoleModel)
	return f
}

// seedActor creates an actor with a committed role and its profile.
func (f *fixture) seedActor(t *testing.T, externalID int64, role domain.Role) *domain.Actor {
	t.Helper()
	ctx := context.Background()
	actor, err := f.actors.GetOrCreateActor(ctx, externalID, domain.ProfileHints{Username: "user"})
	if err != nil {
		t.Fatalf("seed actor %d: %v", externalID, err)
	}
	if !role.Committed() {
		return actor
	}
	err = f.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		now := time.Now().UTC()
		switch role {
		case domain.RoleClient:
			if err := tx.Actors().EnsureClientProfile(ctx, actor.ID, now); err != nil {
				return err
			}
		case domain.RoleModel:
			if err := tx.Actors().SaveModelProfile(ctx, actor.ID, "Model", now); err != nil {
				return err
			}
		case domain.RoleUnassigned:
		}
		return tx.Actors().SetRole(ctx, actor.ID, role, domain.ActorActive)
	})
	if err != nil {
		t.Fatalf("seed role %d: %v", externalID, err)
	}
	actor.Role = role
	return actor
}

func (f *fixture) book(t *testing.T, price string) *ports.SessionDetail {
	t.Helper()
	detail, err := f.sessions.CreateSession(context.Background(), ports.CreateSessionInput{
		ClientID:    clientExt,
		ModelID:     modelExt,
		SessionType: "video",
		Price:       price,
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return detail
}

func (f *fixture) modelEarnings(t *testing.T) decimal.Decimal {
	t.Helper()
	var earnings decimal.Decimal
	err := f.store.View(context.Background(), func(ctx context.Context, tx ports.Tx) error {
		actor, err := tx.Actors().FindByExternalID(ctx, modelExt)
		if err != nil {
			return err
		}
		p, err := tx.Actors().FindModelProfile(ctx, actor.ID)
		if err != nil {
			return err
		}
		earnings = p.TotalEarnings
		return nil
	})
	if err != nil {
		t.Fatalf("read model profile: %v", err)
	}
	return earnings
}

func expectKind(t *testing.T, err, kind error) {
	t.Helper()
	if !errors.Is(err, kind) {
		t.Fatalf("expected %v, got %v", kind, err)
	}
}

// ---------------------------------------------------------------------------
// View retry
// ---------------------------------------------------------------------------

type flakyViewStore struct {
	*memory.LedgerStore
	failures int
	calls    int
}

func (s *flakyViewStore) View(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	s.calls++
	if s.calls <= s.failures {
		return domain.ErrUnavailable
	}
	return s.LedgerStore.View(ctx, fn)
}

func TestView_RetriesOnceOnUnavailable(t *testing.T) {
	store := &flakyViewStore{LedgerStore: memory.NewLedgerStore(), failures: 1}
	err := view(context.Background(), store, func(context.Context, ports.Tx) error { return nil })
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if store.calls != 2 {
		t.Errorf("expected 2 calls, got %d", store.calls)
	}
}

func TestView_GivesUpAfterSecondFailure(t *testing.T) {
	store := &flakyViewStore{LedgerStore: memory.NewLedgerStore(), failures: 5}
	err := view(context.Background(), store, func(context.Context, ports.Tx) error { return nil })
	expectKind(t, err, domain.ErrUnavailable)
	if store.calls != 2 {
		t.Errorf("expected 2 calls, got %d", store.calls)
	}
}

func TestView_DoesNotRetryNotFound(t *testing.T) {
	store := &flakyViewStore{LedgerStore: memory.NewLedgerStore()}
	err := view(context.Background(), store, func(context.Context, ports.Tx) error { return domain.ErrSessionNotFound })
	expectKind(t, err, domain.ErrNotFound)
	if store.calls != 1 {
		t.Errorf("expected 1 call, got %d", store.calls)
	}
}
