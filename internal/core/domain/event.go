package domain

import "time"

// EventType names a domain event emitted after a committed state change.
type EventType string

const (
	EventSessionCreated  EventType = "session.created"
	EventSessionStarted  EventType = "session.started"
	EventSessionEnded    EventType = "session.ended"
	EventDisputeOpened   EventType = "session.disputed"
	EventEscrowReleased  EventType = "escrow.released"
	EventContentAdded    EventType = "content.added"
	EventContentPurchase EventType = "content.purchased"
	EventRoleCommitted   EventType = "actor.role_committed"
)

// Event describes a committed change for external collaborators.
// Subject is the session ref or content id the event is about.
type Event struct {
	Type       EventType         `json:"type"`
	Subject    string            `json:"subject"`
	ActorID    int64             `json:"actor_id"`
	Payload    map[string]string `json:"payload,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}
