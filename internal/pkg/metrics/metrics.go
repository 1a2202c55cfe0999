// Package metrics defines and registers all custom Prometheus metrics for the
// tracking bridge. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// ── Fix metrics ───────────────────────────────────────────────────────────────

// FixesReceivedTotal counts provider callbacks that carried at least one fix.
// Label:
//   - provider: the provider name (e.g. "nmea", "push")
var FixesReceivedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fixes_received_total",
		Help:      "Total number of location fixes received from the provider.",
	},
	[]string{"provider"},
)

// FixesRelayedTotal counts relay decisions.
// Label:
//   - result: "delivered" (a listener got the fix) or "dropped" (nobody listening, or send failed)
var FixesRelayedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fixes_relayed_total",
		Help:      "Total number of fixes pushed into the event relay, labelled by result.",
	},
	[]string{"result"},
)

// ListenerEventsTotal counts changes of the event relay slot.
// Label:
//   - event: "listen", "replace", "cancel" or "detach"
var ListenerEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listener_events_total",
		Help:      "Total number of listener installs, replacements and removals.",
	},
	[]string{"event"},
)

// ── Lifecycle metrics ─────────────────────────────────────────────────────────

// CommandsTotal counts command channel calls.
// Labels:
//   - command: the method name, or "unknown" for unrecognised names
//   - result: "dispatched" or "not_implemented"
var CommandsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "commands_total",
		Help:      "Total number of command channel calls.",
	},
	[]string{"command", "result"},
)

// TrackingActive is 1 while the service is in the Tracking state.
var TrackingActive = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active",
		Help:      "Whether location tracking is currently active (1) or idle (0).",
	},
)

// StartFailuresTotal counts aborted Idle → Tracking transitions.
// Label:
//   - reason: "permission_denied", "provider" or "lease"
var StartFailuresTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "start_failures_total",
		Help:      "Total number of tracking starts that were aborted.",
	},
	[]string{"reason"},
)

// IntentQueueDepth tracks the number of intents waiting for the intent loop.
var IntentQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "intent_queue_depth",
		Help:      "Current number of intents pending in the intent loop.",
	},
)

// IntentProcessingDuration measures how long the tracking service takes to handle an intent.
// Label:
//   - intent: "START_TRACKING" or "STOP_TRACKING"
var IntentProcessingDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "intent_processing_duration_seconds",
		Help:      "Duration of intent handling in the tracking service.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"intent"},
)
