package domain

import "time"

const ActionReleaseEscrow = "release_escrow"

const TargetSession = "session"

// AdminAction is an append-only audit record of a privileged operation.
type AdminAction struct {
	ID            int64             `json:"id"`
	AdminID       int64             `json:"admin_id"`
	ActionType    string            `json:"action_type"`
	TargetActorID int64             `json:"target_actor_id,omitempty"`
	TargetType    string            `json:"target_type"`
	TargetID      int64             `json:"target_id"`
	Details       map[string]string `json:"details,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}
