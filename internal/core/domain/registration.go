package domain

import "time"

// RegistrationStep is the input an onboarding actor is expected to send next.
type RegistrationStep string

const (
	StepEmail       RegistrationStep = "email"
	StepDisplayName RegistrationStep = "display_name"
)

// RegistrationState is the ephemeral onboarding progress of one actor.
type RegistrationState struct {
	ActorID   int64            `json:"actor_id"`
	Role      Role             `json:"role"`
	Step      RegistrationStep `json:"step"`
	StartedAt time.Time        `json:"started_at"`
}

// Expired reports whether the state is older than ttl at now. A non-positive
// ttl never expires.
func (s *RegistrationState) Expired(now time.Time, ttl time.Duration) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.StartedAt) >= ttl
}
