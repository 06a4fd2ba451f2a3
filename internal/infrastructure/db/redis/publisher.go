package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

const defaultEventsChannel = "velvet:events"

// PubSubSink publishes every domain event as JSON on a Redis Pub/Sub channel
// for external subscribers such as the bot gateway.
type PubSubSink struct {
	client  *redis.Client
	channel string
}

func NewPubSubSink(client *redis.Client, channel string) *PubSubSink {
	if channel == "" {
		channel = defaultEventsChannel
	}
	return &PubSubSink{client: client, channel: channel}
}

func (s *PubSubSink) Name() string { return "redis" }

func (s *PubSubSink) Deliver(ctx context.Context, e domain.Event) error {
	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}
