package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// SessionStatus represents the lifecycle state of a booked session.
type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionActive    SessionStatus = "active"
	SessionCompleted SessionStatus = "completed"
	SessionDisputed  SessionStatus = "disputed"
)

// validSessionTransitions defines the allowed session state machine transitions.
// A dispute may be raised before, during or after the live part of a session.
var validSessionTransitions = map[SessionStatus][]SessionStatus{
	SessionPending:   {SessionActive, SessionDisputed},
	SessionActive:    {SessionCompleted, SessionDisputed},
	SessionCompleted: {SessionDisputed},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s SessionStatus) CanTransitionTo(next SessionStatus) bool {
	for _, allowed := range validSessionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// EscrowStatus represents the state of the funds held against a session.
type EscrowStatus string

const (
	EscrowHeld     EscrowStatus = "held"
	EscrowDisputed EscrowStatus = "disputed"
	EscrowReleased EscrowStatus = "released"
)

// validEscrowTransitions defines the allowed escrow transitions. Release is
// idempotent, so released -> released is part of the table.
var validEscrowTransitions = map[EscrowStatus][]EscrowStatus{
	EscrowHeld:     {EscrowDisputed, EscrowReleased},
	EscrowDisputed: {EscrowReleased},
	EscrowReleased: {EscrowReleased},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s EscrowStatus) CanTransitionTo(next EscrowStatus) bool {
	for _, allowed := range validEscrowTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Session is a booked engagement between a client and a model.
type Session struct {
	ID           int64           `json:"id"`
	Ref          string          `json:"session_ref"`
	ClientID     int64           `json:"client_id"`
	ModelID      int64           `json:"model_id"`
	Type         string          `json:"session_type"`
	PackagePrice decimal.Decimal `json:"package_price"`
	Status       SessionStatus   `json:"status"`
	ActualStart  *time.Time      `json:"actual_start,omitempty"`
	EndedAt      *time.Time      `json:"ended_at,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// IsParticipant reports whether the actor with internal id actorID is the
// client or the model of the session.
func (s *Session) IsParticipant(actorID int64) bool {
	return actorID == s.ClientID || actorID == s.ModelID
}

// EscrowAccount holds the session price until an administrator releases it.
type EscrowAccount struct {
	ID            int64           `json:"id"`
	SessionID     int64           `json:"session_id"`
	Amount        decimal.Decimal `json:"amount"`
	Status        EscrowStatus    `json:"status"`
	DisputeReason string          `json:"dispute_reason,omitempty"`
	ReleasedAt    *time.Time      `json:"released_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}
