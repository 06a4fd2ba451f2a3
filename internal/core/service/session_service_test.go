package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
	"github.com/Davelummy/velvet-rooms-project/internal/infrastructure/db/memory"
)

// ---------------------------------------------------------------------------
// CreateSession
// ---------------------------------------------------------------------------

func TestSessionService_Create_OpensHeldEscrow(t *testing.T) {
	f := newFixture(t)

	detail := f.book(t, "50")

	if detail.Session.Status != domain.SessionPending {
		t.Errorf("expected status %q, got %q", domain.SessionPending, detail.Session.Status)
	}
	if detail.Escrow.Status != domain.EscrowHeld {
		t.Errorf("expected escrow %q, got %q", domain.EscrowHeld, detail.Escrow.Status)
	}
	if !detail.Escrow.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected escrow amount 50, got %s", detail.Escrow.Amount)
	}
	if !detail.Escrow.Amount.Equal(detail.Session.PackagePrice) {
		t.Errorf("escrow amount %s differs from price %s", detail.Escrow.Amount, detail.Session.PackagePrice)
	}
	if detail.Escrow.SessionID != detail.Session.ID {
		t.Errorf("escrow points at session %d, want %d", detail.Escrow.SessionID, detail.Session.ID)
	}

	stored, err := f.sessions.GetSession(context.Background(), detail.Session.Ref, clientExt)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if stored.Escrow.Status != domain.EscrowHeld {
		t.Errorf("stored escrow status %q", stored.Escrow.Status)
	}
}

func TestSessionService_Create_RefFormat(t *testing.T) {
	f := newFixture(t)

	a := f.book(t, "10").Session.Ref
	b := f.book(t, "10").Session.Ref

	if !strings.HasPrefix(a, "sess_") || len(a) != len("sess_")+16 {
		t.Errorf("ref format wrong: %s", a)
	}
	if a == b {
		t.Errorf("expected distinct refs, got %s twice", a)
	}
}

func TestSessionService_Create_InvalidPrice(t *testing.T) {
	f := newFixture(t)

	for _, price := range []string{"0", "-5", "abc", "", "0.001"} {
		_, err := f.sessions.CreateSession(context.Background(), ports.CreateSessionInput{
			ClientID: clientExt, ModelID: modelExt, SessionType: "video", Price: price,
		})
		if !errors.Is(err, domain.ErrInvalidInput) {
			t.Errorf("price %q: expected InvalidInput, got %v", price, err)
		}
	}
}

func TestSessionService_Create_SelfDealing(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessions.CreateSession(context.Background(), ports.CreateSessionInput{
		ClientID: clientExt, ModelID: clientExt, SessionType: "video", Price: "50",
	})
	expectKind(t, err, domain.ErrSelfDealing)
}

func TestSessionService_Create_TargetNotModel(t *testing.T) {
	f := newFixture(t)
	f.seedActor(t, 55, domain.RoleClient)

	_, err := f.sessions.CreateSession(context.Background(), ports.CreateSessionInput{
		ClientID: clientExt, ModelID: 55, SessionType: "video", Price: "50",
	})
	expectKind(t, err, domain.ErrNotFound)

	_, err = f.sessions.CreateSession(context.Background(), ports.CreateSessionInput{
		ClientID: clientExt, ModelID: 999, SessionType: "video", Price: "50",
	})
	expectKind(t, err, domain.ErrNotFound)
}

func TestSessionService_Create_CallerMustBeClient(t *testing.T) {
	f := newFixture(t)
	f.seedActor(t, 8, domain.RoleModel)

	_, err := f.sessions.CreateSession(context.Background(), ports.CreateSessionInput{
		ClientID: 8, ModelID: modelExt, SessionType: "video", Price: "50",
	})
	expectKind(t, err, domain.ErrRoleMismatch)
}

func TestSessionService_Create_IdempotentReplay(t *testing.T) {
	f := newFixture(t)
	input := ports.CreateSessionInput{
		ClientID: clientExt, ModelID: modelExt, SessionType: "video", Price: "50", IdempotencyKey: "key-1",
	}

	first, err := f.sessions.CreateSession(context.Background(), input)
	if err != nil {
		t.Fatalf("first create: %v", err)
	}
	second, err := f.sessions.CreateSession(context.Background(), input)
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	if !second.AlreadyExisted {
		t.Error("expected AlreadyExisted=true on replay")
	}
	if second.Session.Ref != first.Session.Ref {
		t.Errorf("replay returned %s, want %s", second.Session.Ref, first.Session.Ref)
	}
	list, _ := f.sessions.ListSessions(context.Background(), clientExt, 0)
	if len(list) != 1 {
		t.Errorf("expected 1 session, got %d", len(list))
	}
}

func TestSessionService_Create_ConcurrentSameKey(t *testing.T) {
	f := newFixture(t)
	svc := NewSessionService(&slowStore{LedgerStore: f.store, delay: 5 * time.Millisecond},
		memory.NewIdempotencyStore(time.Hour), f.events, NewAdminSet([]int64{adminExt}), discardLogger)
	input := ports.CreateSessionInput{
		ClientID: clientExt, ModelID: modelExt, SessionType: "video", Price: "50", IdempotencyKey: "key-1",
	}

	const callers = 8
	refs := make([]string, callers)
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			detail, err := svc.CreateSession(context.Background(), input)
			errs[i] = err
			if err == nil {
				refs[i] = detail.Session.Ref
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("create %d: %v", i, err)
		}
		if refs[i] != refs[0] {
			t.Errorf("caller %d got %s, want %s", i, refs[i], refs[0])
		}
	}
	list, _ := f.sessions.ListSessions(context.Background(), clientExt, 0)
	if len(list) != 1 {
		t.Errorf("expected 1 session, got %d", len(list))
	}
}

func TestSessionService_Create_FailureFreesKey(t *testing.T) {
	f := newFixture(t)
	idem := memory.NewIdempotencyStore(time.Hour)
	admins := NewAdminSet([]int64{adminExt})
	input := ports.CreateSessionInput{
		ClientID: clientExt, ModelID: modelExt, SessionType: "video", Price: "50", IdempotencyKey: "key-1",
	}

	broken := NewSessionService(&failingStore{LedgerStore: f.store, err: errors.New("disk full")},
		idem, f.events, admins, discardLogger)
	if _, err := broken.CreateSession(context.Background(), input); err == nil {
		t.Fatal("expected create to fail")
	}

	svc := NewSessionService(f.store, idem, f.events, admins, discardLogger)
	detail, err := svc.CreateSession(context.Background(), input)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if detail.AlreadyExisted {
		t.Error("retry after a failed create must run, not replay")
	}
}

// ---------------------------------------------------------------------------
// Start / End
// ---------------------------------------------------------------------------

func TestSessionService_Start_ByClientFails(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref

	_, err := f.sessions.StartSession(context.Background(), ref, clientExt)
	expectKind(t, err, domain.ErrRoleMismatch)

	var derr *domain.Error
	if !errors.As(err, &derr) || derr.Msg != "only the model can start the session" {
		t.Errorf("unexpected message: %v", err)
	}

	stored, _ := f.sessions.GetSession(context.Background(), ref, clientExt)
	if stored.Session.Status != domain.SessionPending {
		t.Errorf("status changed to %q", stored.Session.Status)
	}
}

func TestSessionService_StartThenEnd(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref
	ctx := context.Background()

	started, err := f.sessions.StartSession(ctx, ref, modelExt)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if started.Session.Status != domain.SessionActive || started.Session.ActualStart == nil {
		t.Errorf("after start: status %q, start %v", started.Session.Status, started.Session.ActualStart)
	}

	ended, err := f.sessions.EndSession(ctx, ref, modelExt)
	if err != nil {
		t.Fatalf("end: %v", err)
	}
	if ended.Session.Status != domain.SessionCompleted || ended.Session.EndedAt == nil {
		t.Errorf("after end: status %q, ended %v", ended.Session.Status, ended.Session.EndedAt)
	}
	if ended.Escrow.Status != domain.EscrowHeld {
		t.Errorf("escrow should stay held, got %q", ended.Escrow.Status)
	}
}

func TestSessionService_Start_NotPending(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref
	ctx := context.Background()

	if _, err := f.sessions.StartSession(ctx, ref, modelExt); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, err := f.sessions.StartSession(ctx, ref, modelExt)
	expectKind(t, err, domain.ErrStateConflict)

	stored, _ := f.sessions.GetSession(ctx, ref, modelExt)
	if stored.Session.Status != domain.SessionActive {
		t.Errorf("expected status to stay active, got %q", stored.Session.Status)
	}
}

func TestSessionService_End_FromPending(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref

	_, err := f.sessions.EndSession(context.Background(), ref, modelExt)
	expectKind(t, err, domain.ErrStateConflict)
}

func TestSessionService_Start_UnknownRef(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessions.StartSession(context.Background(), "sess_missing", modelExt)
	expectKind(t, err, domain.ErrNotFound)
}

func TestSessionService_Start_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref

	const callers = 20
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.sessions.StartSession(context.Background(), ref, modelExt)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrStateConflict):
				conflicts++
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != callers-1 {
		t.Errorf("expected %d conflicts, got %d", callers-1, conflicts)
	}
}

// ---------------------------------------------------------------------------
// Dispute
// ---------------------------------------------------------------------------

func TestSessionService_Dispute_FromEveryOpenStatus(t *testing.T) {
	tests := []struct {
		name  string
		setup func(f *fixture, ref string)
	}{
		{"pending", func(*fixture, string) {}},
		{"active", func(f *fixture, ref string) {
			f.sessions.StartSession(context.Background(), ref, modelExt)
		}},
		{"completed", func(f *fixture, ref string) {
			f.sessions.StartSession(context.Background(), ref, modelExt)
			f.sessions.EndSession(context.Background(), ref, modelExt)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ref := f.book(t, "50").Session.Ref
			tt.setup(f, ref)

			detail, err := f.sessions.DisputeSession(context.Background(), ref, clientExt, "no-show")
			if err != nil {
				t.Fatalf("dispute: %v", err)
			}
			if detail.Session.Status != domain.SessionDisputed {
				t.Errorf("session status %q", detail.Session.Status)
			}
			if detail.Escrow.Status != domain.EscrowDisputed {
				t.Errorf("escrow status %q", detail.Escrow.Status)
			}
			if detail.Escrow.DisputeReason != "no-show" {
				t.Errorf("reason %q", detail.Escrow.DisputeReason)
			}
		})
	}
}

func TestSessionService_Dispute_SecondDisputeKeepsReason(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref
	ctx := context.Background()

	if _, err := f.sessions.DisputeSession(ctx, ref, clientExt, "no-show"); err != nil {
		t.Fatalf("first dispute: %v", err)
	}
	_, err := f.sessions.DisputeSession(ctx, ref, modelExt, "client was rude")
	expectKind(t, err, domain.ErrStateConflict)

	stored, _ := f.sessions.GetSession(ctx, ref, clientExt)
	if stored.Escrow.DisputeReason != "no-show" {
		t.Errorf("reason overwritten: %q", stored.Escrow.DisputeReason)
	}
}

func TestSessionService_Dispute_ByModel(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref

	if _, err := f.sessions.DisputeSession(context.Background(), ref, modelExt, "client absent"); err != nil {
		t.Fatalf("model dispute: %v", err)
	}
}

func TestSessionService_Dispute_NonParticipant(t *testing.T) {
	f := newFixture(t)
	f.seedActor(t, 99, domain.RoleClient)
	ref := f.book(t, "50").Session.Ref

	_, err := f.sessions.DisputeSession(context.Background(), ref, 99, "curious")
	expectKind(t, err, domain.ErrRoleMismatch)
}

func TestSessionService_Dispute_EmptyReason(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref

	_, err := f.sessions.DisputeSession(context.Background(), ref, clientExt, "   ")
	expectKind(t, err, domain.ErrInvalidInput)
}

// ---------------------------------------------------------------------------
// Release
// ---------------------------------------------------------------------------

func TestSessionService_Release_AfterDispute(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref
	ctx := context.Background()

	f.sessions.DisputeSession(ctx, ref, clientExt, "no-show")

	detail, err := f.sessions.ReleaseEscrow(ctx, ref, adminExt)
	if err != nil {
		t.Fatalf("release: %v", err)
	}
	if detail.Escrow.Status != domain.EscrowReleased {
		t.Errorf("escrow status %q", detail.Escrow.Status)
	}
	if detail.Escrow.DisputeReason != "no-show" {
		t.Errorf("dispute reason not retained: %q", detail.Escrow.DisputeReason)
	}
	if detail.Session.Status != domain.SessionDisputed {
		t.Errorf("release must not touch session status, got %q", detail.Session.Status)
	}
	if detail.Escrow.ReleasedAt == nil {
		t.Error("ReleasedAt must be set")
	}

	actions, err := f.audit.ListAdminActions(ctx, adminExt, 0)
	if err != nil {
		t.Fatalf("list actions: %v", err)
	}
	if len(actions) != 1 {
		t.Fatalf("expected 1 admin action, got %d", len(actions))
	}
	a := actions[0]
	if a.ActionType != domain.ActionReleaseEscrow || a.AdminID != adminExt {
		t.Errorf("unexpected action: %+v", a)
	}
	if a.TargetType != domain.TargetSession || a.TargetID != detail.Session.ID {
		t.Errorf("unexpected target: %s/%d", a.TargetType, a.TargetID)
	}
	if a.Details["session_ref"] != ref || a.Details["previous_status"] != "disputed" {
		t.Errorf("unexpected details: %v", a.Details)
	}
}

func TestSessionService_Release_Idempotent(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref
	ctx := context.Background()

	first, err := f.sessions.ReleaseEscrow(ctx, ref, adminExt)
	if err != nil {
		t.Fatalf("first release: %v", err)
	}
	second, err := f.sessions.ReleaseEscrow(ctx, ref, adminExt)
	if err != nil {
		t.Fatalf("second release: %v", err)
	}

	if first.Escrow.Status != domain.EscrowReleased || second.Escrow.Status != domain.EscrowReleased {
		t.Errorf("statuses %q / %q", first.Escrow.Status, second.Escrow.Status)
	}
	if !second.Escrow.ReleasedAt.Equal(*first.Escrow.ReleasedAt) {
		t.Errorf("ReleasedAt moved on second release")
	}
	if got := f.modelEarnings(t); !got.Equal(decimal.NewFromInt(50)) {
		t.Errorf("model credited %s, want 50", got)
	}
	actions, _ := f.audit.ListAdminActions(ctx, adminExt, 0)
	if len(actions) != 2 {
		t.Errorf("expected an audit record per call, got %d", len(actions))
	}
}

func TestSessionService_Release_NonAdmin(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref

	_, err := f.sessions.ReleaseEscrow(context.Background(), ref, clientExt)
	expectKind(t, err, domain.ErrRoleMismatch)

	actions, _ := f.audit.ListAdminActions(context.Background(), adminExt, 0)
	if len(actions) != 0 {
		t.Errorf("expected no audit record, got %d", len(actions))
	}
}

func TestSessionService_Release_UnknownRef(t *testing.T) {
	f := newFixture(t)

	_, err := f.sessions.ReleaseEscrow(context.Background(), "sess_missing", adminExt)
	expectKind(t, err, domain.ErrNotFound)
}

func TestSessionService_DisputeAfterRelease(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref
	ctx := context.Background()

	f.sessions.StartSession(ctx, ref, modelExt)
	f.sessions.EndSession(ctx, ref, modelExt)
	if _, err := f.sessions.ReleaseEscrow(ctx, ref, adminExt); err != nil {
		t.Fatalf("release: %v", err)
	}

	_, err := f.sessions.DisputeSession(ctx, ref, clientExt, "late complaint")
	expectKind(t, err, domain.ErrStateConflict)

	stored, _ := f.sessions.GetSession(ctx, ref, clientExt)
	if stored.Session.Status != domain.SessionCompleted {
		t.Errorf("session status changed to %q", stored.Session.Status)
	}
}

// ---------------------------------------------------------------------------
// Queries and events
// ---------------------------------------------------------------------------

func TestSessionService_GetSession_Access(t *testing.T) {
	f := newFixture(t)
	f.seedActor(t, 99, domain.RoleClient)
	ref := f.book(t, "50").Session.Ref
	ctx := context.Background()

	if _, err := f.sessions.GetSession(ctx, ref, modelExt); err != nil {
		t.Errorf("model: %v", err)
	}
	if _, err := f.sessions.GetSession(ctx, ref, adminExt); err != nil {
		t.Errorf("admin: %v", err)
	}
	_, err := f.sessions.GetSession(ctx, ref, 99)
	expectKind(t, err, domain.ErrRoleMismatch)
}

func TestSessionService_ListSessions_NewestFirst(t *testing.T) {
	f := newFixture(t)
	first := f.book(t, "10")
	second := f.book(t, "20")

	list, err := f.sessions.ListSessions(context.Background(), modelExt, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(list))
	}
	if list[0].Session.Ref != second.Session.Ref || list[1].Session.Ref != first.Session.Ref {
		t.Errorf("unexpected order: %s, %s", list[0].Session.Ref, list[1].Session.Ref)
	}

	limited, _ := f.sessions.ListSessions(context.Background(), clientExt, 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestSessionService_PublishesEventsAfterCommit(t *testing.T) {
	f := newFixture(t)
	ref := f.book(t, "50").Session.Ref
	ctx := context.Background()

	f.sessions.StartSession(ctx, ref, modelExt)
	f.sessions.DisputeSession(ctx, ref, clientExt, "no-show")
	f.sessions.ReleaseEscrow(ctx, ref, adminExt)
	f.sessions.StartSession(ctx, ref, modelExt) // fails, no event

	want := []domain.EventType{
		domain.EventSessionCreated,
		domain.EventSessionStarted,
		domain.EventDisputeOpened,
		domain.EventEscrowReleased,
	}
	got := f.events.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestSessionService_FailedWriteLeavesNothing(t *testing.T) {
	f := newFixture(t)
	failing := &failingStore{LedgerStore: f.store, err: domain.ErrUnavailable}
	svc := NewSessionService(failing, nil, f.events, NewAdminSet(nil), discardLogger)

	_, err := svc.CreateSession(context.Background(), ports.CreateSessionInput{
		ClientID: clientExt, ModelID: modelExt, SessionType: "video", Price: "50",
	})
	expectKind(t, err, domain.ErrUnavailable)
	if len(f.events.types()) != 0 {
		t.Errorf("no event may be published for a failed write, got %v", f.events.types())
	}
}
