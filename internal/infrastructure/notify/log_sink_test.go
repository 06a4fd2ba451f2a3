package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

func TestLogSink_WritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	sink := NewLogSink(zerolog.New(&buf))

	err := sink.Deliver(context.Background(), domain.Event{
		Type:       domain.EventEscrowReleased,
		Subject:    "sess_abc",
		ActorID:    1000,
		Payload:    map[string]string{"amount": "50.00"},
		OccurredAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, buf.String())
	}
	if line["channel"] != "events" || line["event_type"] != "escrow.released" || line["amount"] != "50.00" {
		t.Errorf("unexpected fields: %v", line)
	}
	if line["message"] != "Escrow released for sess_abc" {
		t.Errorf("unexpected message: %v", line["message"])
	}
}

func TestLogSink_Name(t *testing.T) {
	if got := NewLogSink(zerolog.Nop()).Name(); got != "log" {
		t.Errorf("expected log, got %s", got)
	}
}
