package handler

import (
	"errors"
	"strings"
	"testing"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

func TestValidator_UsesJSONNames(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&createSessionRequest{SessionType: "video", Price: "abc"})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"model_id is required", "price must be a number"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q missing %q", msg, want)
		}
	}
}

func TestValidator_OneOf(t *testing.T) {
	err := NewValidator().Validate(&beginRegistrationRequest{Role: "admin"})
	if err == nil || !strings.Contains(err.Error(), "role must be one of: client model") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidator_Valid(t *testing.T) {
	req := &createContentRequest{ContentType: "photo", Price: "9.99", Title: "Set"}
	if err := NewValidator().Validate(req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
