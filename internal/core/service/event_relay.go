package service

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
	"github.com/busnap/tracking-bridge/internal/pkg/metrics"
)

// sinkSlot boxes the installed sink so the slot can be swapped atomically.
type sinkSlot struct {
	sink ports.EventSink
}

// EventRelay is a single-slot, last-writer-wins mailbox between the tracking
// service and whoever listens on the event channel. Push reads the slot once;
// an empty slot means the fix is dropped. Nothing is buffered or replayed.
//
// Sinks are compared by identity in Detach, so they must be comparable values
// (pointers in practice).
type EventRelay struct {
	slot atomic.Pointer[sinkSlot]
	log  zerolog.Logger
}

// NewEventRelay returns an empty relay.
func NewEventRelay(log zerolog.Logger) *EventRelay {
	return &EventRelay{log: log}
}

var _ ports.EventRelay = (*EventRelay)(nil)

// Listen installs sink as the current target. The previous sink, if any, is
// replaced silently and receives neither further fixes nor a cancellation.
func (r *EventRelay) Listen(sink ports.EventSink) {
	if sink == nil {
		r.Cancel()
		return
	}
	if prev := r.slot.Swap(&sinkSlot{sink: sink}); prev != nil {
		metrics.ListenerEventsTotal.WithLabelValues("replace").Inc()
		r.log.Debug().Msg("listener replaced")
		return
	}
	metrics.ListenerEventsTotal.WithLabelValues("listen").Inc()
	r.log.Debug().Msg("listener installed")
}

// Cancel clears the current target.
func (r *EventRelay) Cancel() {
	if r.slot.Swap(nil) != nil {
		metrics.ListenerEventsTotal.WithLabelValues("cancel").Inc()
		r.log.Debug().Msg("listener cancelled")
	}
}

// Detach clears the slot only when sink is still installed. A superseded
// listener going away must not clear its successor.
func (r *EventRelay) Detach(sink ports.EventSink) bool {
	cur := r.slot.Load()
	if cur == nil || cur.sink != sink {
		return false
	}
	if !r.slot.CompareAndSwap(cur, nil) {
		return false
	}
	metrics.ListenerEventsTotal.WithLabelValues("detach").Inc()
	r.log.Debug().Msg("listener detached")
	return true
}

// Push delivers fix to the installed sink. It reports false when nobody is
// listening or the sink rejected the fix; either way the fix is gone.
func (r *EventRelay) Push(fix domain.LocationFix) bool {
	cur := r.slot.Load()
	if cur == nil {
		metrics.FixesRelayedTotal.WithLabelValues("dropped").Inc()
		return false
	}
	if err := cur.sink.Send(fix); err != nil {
		metrics.FixesRelayedTotal.WithLabelValues("dropped").Inc()
		r.log.Debug().Err(err).Msg("listener rejected fix")
		return false
	}
	metrics.FixesRelayedTotal.WithLabelValues("delivered").Inc()
	return true
}

// Listening reports whether a sink is installed.
func (r *EventRelay) Listening() bool {
	return r.slot.Load() != nil
}
