package ports

import (
	"context"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// EventPublisher hands committed domain events to the fan-out. Publish never
// blocks on delivery and never fails the caller.
type EventPublisher interface {
	Publish(event domain.Event)
}

// EventSink delivers events to one external collaborator.
type EventSink interface {
	Name() string
	Deliver(ctx context.Context, event domain.Event) error
}
