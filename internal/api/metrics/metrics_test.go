package metrics

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "ok"},
		{domain.ErrSessionNotFound, "not_found"},
		{domain.ErrNotAdmin, "role_mismatch"},
		{domain.ErrInvalidAmount, "invalid_input"},
		{domain.ErrPendingOnboarding, "registration_in_progress"},
		{domain.ErrAlreadyRegistered, "role_conflict"},
		{domain.ErrSameActor, "self_dealing"},
		{fmt.Errorf("start session: %w", domain.ErrConcurrentUpdate), "state_conflict"},
		{fmt.Errorf("%w: dial tcp", domain.ErrUnavailable), "unavailable"},
		{errors.New("boom"), "error"},
	}
	for _, tt := range tests {
		if got := Outcome(tt.err); got != tt.want {
			t.Errorf("Outcome(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
