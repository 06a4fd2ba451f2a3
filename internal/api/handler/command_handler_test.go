package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/Davelummy/velvet-rooms-project/internal/api/middleware"
	"github.com/Davelummy/velvet-rooms-project/internal/core/command"
	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

type stubCommandRouter struct {
	got   command.Identity
	text  string
	reply command.Reply
}

func (s *stubCommandRouter) Handle(_ context.Context, id command.Identity, text string) command.Reply {
	s.got = id
	s.text = text
	return s.reply
}

func TestCommandHandler_RelaysReply(t *testing.T) {
	router := &stubCommandRouter{reply: command.Reply{Command: "start", Text: "Welcome to Velvet Rooms!"}}
	c, rec := newContext(t, http.MethodPost, "/v1/commands", strings.NewReader(`{"text":"/start"}`), 42)
	c.Set(middleware.KeyUsername, "alice")

	if err := NewCommandHandler(router).Handle(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if router.text != "/start" || router.got.ExternalID != 42 || router.got.Hints.Username != "alice" {
		t.Fatalf("unexpected call: %+v %q", router.got, router.text)
	}
	resp := decode(t, rec)
	if resp["command"] != "start" || resp["reply"] != "Welcome to Velvet Rooms!" {
		t.Fatalf("unexpected payload: %+v", resp)
	}
}

func TestCommandHandler_FailureIsStillOK(t *testing.T) {
	router := &stubCommandRouter{reply: command.Reply{
		Command: "start_session",
		Text:    "Only the model can start the session.",
		Err:     domain.OnlyModelCan("start"),
	}}
	c, rec := newContext(t, http.MethodPost, "/v1/commands", strings.NewReader(`{"text":"/start_session sess_x"}`), 42)

	if err := NewCommandHandler(router).Handle(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCommandHandler_EmptyText(t *testing.T) {
	router := &stubCommandRouter{}
	c, _ := newContext(t, http.MethodPost, "/v1/commands", strings.NewReader(`{"text":""}`), 42)

	if err := NewCommandHandler(router).Handle(c); err == nil {
		t.Fatal("expected validation error")
	}
	if router.text != "" {
		t.Fatal("router should not be called")
	}
}
