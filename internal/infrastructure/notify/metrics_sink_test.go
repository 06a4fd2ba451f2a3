package notify

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/Davelummy/velvet-rooms-project/internal/api/metrics"
	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

func TestMetricsSink_CountsTransitions(t *testing.T) {
	sink := NewMetricsSink()
	counter := metrics.SessionTransitionsTotal.WithLabelValues("released")
	before := counterValue(t, counter)

	if err := sink.Deliver(context.Background(), domain.Event{Type: domain.EventEscrowReleased, Subject: "sess_1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := counterValue(t, counter); got != before+1 {
		t.Fatalf("expected %v, got %v", before+1, got)
	}
}

func TestMetricsSink_CountsPurchaseRevenue(t *testing.T) {
	sink := NewMetricsSink()
	purchases := counterValue(t, metrics.PurchasesTotal)
	revenue := counterValue(t, metrics.PurchaseRevenueTotal)

	err := sink.Deliver(context.Background(), domain.Event{
		Type:    domain.EventContentPurchase,
		Subject: "3",
		Payload: map[string]string{"price_paid": "12.50"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := counterValue(t, metrics.PurchasesTotal); got != purchases+1 {
		t.Errorf("expected %v purchases, got %v", purchases+1, got)
	}
	if got := counterValue(t, metrics.PurchaseRevenueTotal); got != revenue+12.5 {
		t.Errorf("expected revenue %v, got %v", revenue+12.5, got)
	}
}

func TestMetricsSink_RejectsBadAmount(t *testing.T) {
	err := NewMetricsSink().Deliver(context.Background(), domain.Event{
		Type:    domain.EventContentPurchase,
		Payload: map[string]string{"price_paid": "n/a"},
	})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}
