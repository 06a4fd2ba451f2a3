package service

import (
	"context"
	"testing"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

func TestActorService_GetOrCreate_FirstContact(t *testing.T) {
	f := newFixture(t)

	actor, err := f.actors.GetOrCreateActor(context.Background(), 77, domain.ProfileHints{Username: "ann", FirstName: "Ann"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if actor.Role != domain.RoleUnassigned || actor.Status != domain.ActorInactive {
		t.Errorf("role %q status %q", actor.Role, actor.Status)
	}
	if actor.ID == 0 || actor.ExternalID != 77 {
		t.Errorf("ids not set: %+v", actor)
	}
}

func TestActorService_GetOrCreate_RefreshesHints(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, _ := f.actors.GetOrCreateActor(ctx, 77, domain.ProfileHints{Username: "ann"})
	second, err := f.actors.GetOrCreateActor(ctx, 77, domain.ProfileHints{Username: "ann_b", LastName: "B"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("expected same actor, got %d and %d", first.ID, second.ID)
	}
	if second.Username != "ann_b" || second.LastName != "B" {
		t.Errorf("hints not refreshed: %+v", second)
	}
}

func TestActorService_SwitchRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	actor, err := f.actors.SwitchRole(ctx, clientExt, domain.RoleModel)
	if err != nil {
		t.Fatalf("switch: %v", err)
	}
	if actor.Role != domain.RoleModel {
		t.Errorf("role %q", actor.Role)
	}
	f.store.View(ctx, func(ctx context.Context, tx ports.Tx) error {
		p, err := tx.Actors().FindModelProfile(ctx, actor.ID)
		if err != nil {
			t.Fatalf("model profile missing: %v", err)
		}
		if p.DisplayName != "user" {
			t.Errorf("display name %q, want username", p.DisplayName)
		}
		return nil
	})

	back, err := f.actors.SwitchRole(ctx, clientExt, domain.RoleClient)
	if err != nil || back.Role != domain.RoleClient {
		t.Errorf("switch back: %v %+v", err, back)
	}
}

func TestActorService_SwitchRole_SameRoleIsNoop(t *testing.T) {
	f := newFixture(t)

	actor, err := f.actors.SwitchRole(context.Background(), modelExt, domain.RoleModel)
	if err != nil || actor.Role != domain.RoleModel {
		t.Errorf("unexpected result: %v %+v", err, actor)
	}
	if len(f.events.types()) != 0 {
		t.Errorf("no event expected, got %v", f.events.types())
	}
}

func TestActorService_SwitchRole_Unassigned(t *testing.T) {
	f := newFixture(t)
	f.seedActor(t, 77, domain.RoleUnassigned)

	_, err := f.actors.SwitchRole(context.Background(), 77, domain.RoleClient)
	expectKind(t, err, domain.ErrRoleMismatch)

	_, err = f.actors.SwitchRole(context.Background(), clientExt, domain.RoleUnassigned)
	expectKind(t, err, domain.ErrInvalidInput)
}

func TestActorService_IsAdmin(t *testing.T) {
	f := newFixture(t)

	if !f.actors.IsAdmin(adminExt) {
		t.Error("expected admin")
	}
	if f.actors.IsAdmin(clientExt) {
		t.Error("client must not be admin")
	}
}

func TestAuditService_RequiresAdmin(t *testing.T) {
	f := newFixture(t)

	_, err := f.audit.ListAdminActions(context.Background(), clientExt, 10)
	expectKind(t, err, domain.ErrRoleMismatch)
}

func TestAuditService_NewestFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.book(t, "10").Session.Ref
	b := f.book(t, "20").Session.Ref
	f.sessions.ReleaseEscrow(ctx, a, adminExt)
	f.sessions.ReleaseEscrow(ctx, b, adminExt)

	actions, err := f.audit.ListAdminActions(ctx, adminExt, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(actions) != 1 || actions[0].Details["session_ref"] != b {
		t.Errorf("expected latest release first, got %+v", actions)
	}
}
