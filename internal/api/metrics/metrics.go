// Package metrics defines the custom Prometheus metrics of the Velvet Rooms
// API. It is the single source of truth for metric names, labels and help
// strings. Metrics are registered with the default registry on import through
// promauto; HTTP request metrics come from echoprometheus.
package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

const namespace = "velvet"

// ── Command metrics ───────────────────────────────────────────────────────────

// CommandsTotal counts handled commands.
// Labels:
//   - command: the command name (e.g. "create_session", "buy_content")
//   - outcome: "ok" or the error kind (e.g. "not_found", "state_conflict")
var CommandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Total number of commands handled, by command and outcome.",
	},
	[]string{"command", "outcome"},
)

// ── Session metrics ───────────────────────────────────────────────────────────

// SessionTransitionsTotal counts successful session and escrow transitions.
// Label:
//   - transition: "created", "started", "ended", "disputed" or "released"
var SessionTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "session_transitions_total",
		Help:      "Total number of session lifecycle transitions.",
	},
	[]string{"transition"},
)

// ── Content metrics ───────────────────────────────────────────────────────────

// PurchasesTotal counts recorded content purchases.
var PurchasesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_purchases_total",
		Help:      "Total number of content purchases recorded.",
	},
)

// PurchaseRevenueTotal accumulates the price paid for content purchases.
var PurchaseRevenueTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "content_purchase_revenue_total",
		Help:      "Sum of price paid over all content purchases.",
	},
)

// ── Event fan-out metrics ─────────────────────────────────────────────────────

// EventsDeliveredTotal counts events handed to sinks.
// Labels:
//   - sink: the sink name (e.g. "log", "redis")
//   - result: "ok" or "error"
var EventsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_delivered_total",
		Help:      "Total number of domain event deliveries, by sink and result.",
	},
	[]string{"sink", "result"},
)

// EventsDroppedTotal counts events discarded because a worker queue was full.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of domain events dropped on a full dispatcher queue.",
	},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventDeliveryDuration measures how long one sink takes to deliver one event.
// Label:
//   - sink: the sink name
var EventDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_delivery_duration_seconds",
		Help:      "Duration of a single event delivery to a sink.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"sink"},
)

// Outcome turns a command error into the "outcome" label value.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrRoleMismatch):
		return "role_mismatch"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrRegistrationInProgress):
		return "registration_in_progress"
	case errors.Is(err, domain.ErrRoleConflict):
		return "role_conflict"
	case errors.Is(err, domain.ErrSelfDealing):
		return "self_dealing"
	case errors.Is(err, domain.ErrStateConflict):
		return "state_conflict"
	case errors.Is(err, domain.ErrUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
