package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the committed marketplace role of an actor.
type Role string

const (
	RoleUnassigned Role = "unassigned"
	RoleClient     Role = "client"
	RoleModel      Role = "model"
)

// ParseRole converts s into a Role, accepting only client and model.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleClient, RoleModel:
		return Role(s), nil
	case RoleUnassigned:
		return "", ErrInvalidRole
	default:
		return "", ErrInvalidRole
	}
}

// Committed reports whether the role is client or model.
func (r Role) Committed() bool {
	switch r {
	case RoleClient, RoleModel:
		return true
	case RoleUnassigned:
		return false
	default:
		return false
	}
}

// ActorStatus is the account status of an actor.
type ActorStatus string

const (
	ActorInactive ActorStatus = "inactive"
	ActorActive   ActorStatus = "active"
)

// ProfileHints carries the transport-supplied profile fields refreshed on
// every contact.
type ProfileHints struct {
	Username  string
	FirstName string
	LastName  string
}

// Actor is a user of the marketplace identified by an opaque external id.
type Actor struct {
	ID            int64           `json:"id"`
	ExternalID    int64           `json:"external_id"`
	Username      string          `json:"username,omitempty"`
	FirstName     string          `json:"first_name,omitempty"`
	LastName      string          `json:"last_name,omitempty"`
	Email         string          `json:"email,omitempty"`
	Role          Role            `json:"role"`
	Status        ActorStatus     `json:"status"`
	WalletBalance decimal.Decimal `json:"wallet_balance"`
	CreatedAt     time.Time       `json:"created_at"`
}

// DefaultDisplayName is the display name given to a model profile created by
// a role switch rather than by onboarding.
func (a *Actor) DefaultDisplayName() string {
	switch {
	case a.Username != "":
		return a.Username
	case a.FirstName != "":
		return a.FirstName
	default:
		return "model"
	}
}

// ModelProfile extends an actor once the model role is committed.
type ModelProfile struct {
	ActorID            int64           `json:"actor_id"`
	DisplayName        string          `json:"display_name"`
	VerificationStatus string          `json:"verification_status"`
	TotalEarnings      decimal.Decimal `json:"total_earnings"`
	CreatedAt          time.Time       `json:"created_at"`
}

// ClientProfile extends an actor once the client role is committed.
type ClientProfile struct {
	ActorID    int64           `json:"actor_id"`
	TotalSpent decimal.Decimal `json:"total_spent"`
	CreatedAt  time.Time       `json:"created_at"`
}

const VerificationPending = "pending"
