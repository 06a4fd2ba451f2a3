package notify

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/api/metrics"
	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// transitions maps session and escrow events to the transition label.
var transitions = map[domain.EventType]string{
	domain.EventSessionCreated: "created",
	domain.EventSessionStarted: "started",
	domain.EventSessionEnded:   "ended",
	domain.EventDisputeOpened:  "disputed",
	domain.EventEscrowReleased: "released",
}

// MetricsSink turns committed events into business counters, so transitions
// are counted once whichever transport triggered them.
type MetricsSink struct{}

func NewMetricsSink() *MetricsSink { return &MetricsSink{} }

func (s *MetricsSink) Name() string { return "metrics" }

func (s *MetricsSink) Deliver(_ context.Context, e domain.Event) error {
	if label, ok := transitions[e.Type]; ok {
		metrics.SessionTransitionsTotal.WithLabelValues(label).Inc()
		return nil
	}
	if e.Type != domain.EventContentPurchase {
		return nil
	}
	metrics.PurchasesTotal.Inc()
	paid, err := decimal.NewFromString(e.Payload["price_paid"])
	if err != nil {
		return err
	}
	metrics.PurchaseRevenueTotal.Add(paid.InexactFloat64())
	return nil
}
