package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

type stubSessionService struct {
	ports.SessionService
	createFn     func(ctx context.Context, in ports.CreateSessionInput) (*ports.SessionDetail, error)
	transitionFn func(ctx context.Context, ref string, actorID int64) (*ports.SessionDetail, error)
	disputeFn    func(ctx context.Context, ref string, actorID int64, reason string) (*ports.SessionDetail, error)
	listFn       func(ctx context.Context, actorID int64, limit int) ([]ports.SessionDetail, error)
}

func (s *stubSessionService) CreateSession(ctx context.Context, in ports.CreateSessionInput) (*ports.SessionDetail, error) {
	return s.createFn(ctx, in)
}

func (s *stubSessionService) StartSession(ctx context.Context, ref string, actorID int64) (*ports.SessionDetail, error) {
	return s.transitionFn(ctx, ref, actorID)
}

func (s *stubSessionService) ReleaseEscrow(ctx context.Context, ref string, actorID int64) (*ports.SessionDetail, error) {
	return s.transitionFn(ctx, ref, actorID)
}

func (s *stubSessionService) DisputeSession(ctx context.Context, ref string, actorID int64, reason string) (*ports.SessionDetail, error) {
	return s.disputeFn(ctx, ref, actorID, reason)
}

func (s *stubSessionService) ListSessions(ctx context.Context, actorID int64, limit int) ([]ports.SessionDetail, error) {
	return s.listFn(ctx, actorID, limit)
}

func sampleDetail(status domain.SessionStatus, escrow domain.EscrowStatus) *ports.SessionDetail {
	price := decimal.RequireFromString("50")
	return &ports.SessionDetail{
		Session: domain.Session{
			ID: 1, Ref: "sess_00112233aabbccdd", ClientID: 2, ModelID: 3,
			Type: "video", PackagePrice: price, Status: status,
			CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		},
		Escrow: domain.EscrowAccount{ID: 1, SessionID: 1, Amount: price, Status: escrow},
	}
}

func TestSessionHandler_Create_Success(t *testing.T) {
	stub := &stubSessionService{
		createFn: func(_ context.Context, in ports.CreateSessionInput) (*ports.SessionDetail, error) {
			if in.ClientID != 42 || in.ModelID != 7 || in.SessionType != "video" || in.Price != "50" {
				t.Fatalf("unexpected input: %+v", in)
			}
			if in.IdempotencyKey != "key-1" {
				t.Fatalf("idempotency key not forwarded: %q", in.IdempotencyKey)
			}
			return sampleDetail(domain.SessionPending, domain.EscrowHeld), nil
		},
	}
	h := NewSessionHandler(stub)

	body := strings.NewReader(`{"model_id":7,"session_type":"video","price":"50"}`)
	c, rec := newContext(t, http.MethodPost, "/v1/sessions", body, 42)
	c.Request().Header.Set("Idempotency-Key", "key-1")

	if err := h.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	resp := decode(t, rec)
	if resp["session_ref"] != "sess_00112233aabbccdd" || resp["status"] != "pending" || resp["package_price"] != "50.00" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	escrow, ok := resp["escrow"].(map[string]any)
	if !ok || escrow["status"] != "held" || escrow["amount"] != "50.00" {
		t.Fatalf("unexpected escrow: %+v", resp["escrow"])
	}
	links, ok := resp["_links"].(map[string]any)
	if !ok || links["self"] != "/v1/sessions/sess_00112233aabbccdd" {
		t.Fatalf("unexpected links: %+v", resp["_links"])
	}
}

func TestSessionHandler_Create_Replay(t *testing.T) {
	stub := &stubSessionService{
		createFn: func(context.Context, ports.CreateSessionInput) (*ports.SessionDetail, error) {
			d := sampleDetail(domain.SessionPending, domain.EscrowHeld)
			d.AlreadyExisted = true
			return d, nil
		},
	}
	body := strings.NewReader(`{"model_id":7,"session_type":"video","price":"50"}`)
	c, rec := newContext(t, http.MethodPost, "/v1/sessions", body, 42)

	if err := NewSessionHandler(stub).Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if decode(t, rec)["already_existed"] != true {
		t.Fatal("expected already_existed flag")
	}
}

func TestSessionHandler_Create_InvalidPayload(t *testing.T) {
	stub := &stubSessionService{
		createFn: func(context.Context, ports.CreateSessionInput) (*ports.SessionDetail, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	c, _ := newContext(t, http.MethodPost, "/v1/sessions", strings.NewReader("not-json"), 42)

	err := NewSessionHandler(stub).Create(c)
	if code := httpCode(t, err); code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", code)
	}
}

func TestSessionHandler_Create_ValidationFails(t *testing.T) {
	stub := &stubSessionService{
		createFn: func(context.Context, ports.CreateSessionInput) (*ports.SessionDetail, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	body := strings.NewReader(`{"model_id":7,"session_type":"video","price":"lots"}`)
	c, _ := newContext(t, http.MethodPost, "/v1/sessions", body, 42)

	err := NewSessionHandler(stub).Create(c)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSessionHandler_Start_PassesRefAndActor(t *testing.T) {
	stub := &stubSessionService{
		transitionFn: func(_ context.Context, ref string, actorID int64) (*ports.SessionDetail, error) {
			if ref != "sess_00112233aabbccdd" || actorID != 7 {
				t.Fatalf("unexpected args: %s %d", ref, actorID)
			}
			return sampleDetail(domain.SessionActive, domain.EscrowHeld), nil
		},
	}
	c, rec := newContext(t, http.MethodPost, "/", nil, 7)
	c.SetParamNames("ref")
	c.SetParamValues("sess_00112233aabbccdd")

	if err := NewSessionHandler(stub).Start(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "active" {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestSessionHandler_Release_ReturnsDomainError(t *testing.T) {
	stub := &stubSessionService{
		transitionFn: func(context.Context, string, int64) (*ports.SessionDetail, error) {
			return nil, domain.ErrSessionNotFound
		},
	}
	c, _ := newContext(t, http.MethodPost, "/", nil, 1000)
	c.SetParamNames("ref")
	c.SetParamValues("sess_missing")

	if err := NewSessionHandler(stub).Release(c); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSessionHandler_Dispute_RequiresReason(t *testing.T) {
	stub := &stubSessionService{
		disputeFn: func(context.Context, string, int64, string) (*ports.SessionDetail, error) {
			t.Fatal("should not be called")
			return nil, nil
		},
	}
	c, _ := newContext(t, http.MethodPost, "/", strings.NewReader(`{}`), 42)
	c.SetParamNames("ref")
	c.SetParamValues("sess_00112233aabbccdd")

	if err := NewSessionHandler(stub).Dispute(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSessionHandler_Dispute_Success(t *testing.T) {
	stub := &stubSessionService{
		disputeFn: func(_ context.Context, _ string, _ int64, reason string) (*ports.SessionDetail, error) {
			if reason != "no show" {
				t.Fatalf("unexpected reason %q", reason)
			}
			d := sampleDetail(domain.SessionDisputed, domain.EscrowDisputed)
			d.Escrow.DisputeReason = reason
			return d, nil
		},
	}
	c, rec := newContext(t, http.MethodPost, "/", strings.NewReader(`{"reason":"no show"}`), 42)
	c.SetParamNames("ref")
	c.SetParamValues("sess_00112233aabbccdd")

	if err := NewSessionHandler(stub).Dispute(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	escrow, _ := decode(t, rec)["escrow"].(map[string]any)
	if escrow["status"] != "disputed" || escrow["dispute_reason"] != "no show" {
		t.Fatalf("unexpected escrow: %+v", escrow)
	}
}

func TestSessionHandler_List(t *testing.T) {
	stub := &stubSessionService{
		listFn: func(_ context.Context, actorID int64, limit int) ([]ports.SessionDetail, error) {
			if actorID != 42 || limit != 5 {
				t.Fatalf("unexpected args: %d %d", actorID, limit)
			}
			return []ports.SessionDetail{
				*sampleDetail(domain.SessionCompleted, domain.EscrowHeld),
				*sampleDetail(domain.SessionPending, domain.EscrowHeld),
			}, nil
		},
	}
	c, rec := newContext(t, http.MethodGet, "/v1/sessions?limit=5", nil, 42)

	if err := NewSessionHandler(stub).List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	resp := decode(t, rec)
	items, _ := resp["items"].([]any)
	if resp["count"] != float64(2) || len(items) != 2 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}
