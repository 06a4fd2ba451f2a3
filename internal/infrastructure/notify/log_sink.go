// Package notify holds the event sinks that forward committed domain events to
// external collaborators.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// LogSink writes every event to a dedicated zerolog logger. It stands in for
// the escrow log channel that operators watch.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("channel", "events").Logger()}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(_ context.Context, e domain.Event) error {
	ev := s.log.Info().
		Str("event_type", string(e.Type)).
		Str("subject", e.Subject).
		Int64("actor_id", e.ActorID).
		Time("occurred_at", e.OccurredAt)
	for k, v := range e.Payload {
		ev = ev.Str(k, v)
	}
	ev.Msg(describe(e))
	return nil
}

// describe renders the one-line summary operators see for an event.
func describe(e domain.Event) string {
	switch e.Type {
	case domain.EventContentAdded:
		return "New content added: " + e.Payload["title"]
	case domain.EventEscrowReleased:
		return "Escrow released for " + e.Subject
	case domain.EventDisputeOpened:
		return "Dispute opened for " + e.Subject
	case domain.EventSessionCreated:
		return "Session created: " + e.Subject
	case domain.EventSessionStarted:
		return "Session started: " + e.Subject
	case domain.EventSessionEnded:
		return "Session ended: " + e.Subject
	case domain.EventContentPurchase:
		return "Content purchased: " + e.Subject
	case domain.EventRoleCommitted:
		return "Role committed: " + e.Subject
	default:
		return string(e.Type)
	}
}
