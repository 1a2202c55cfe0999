package ports

import "github.com/busnap/tracking-bridge/internal/core/domain"

// EventSink is whoever is currently listening on the event channel.
type EventSink interface {
	Send(fix domain.LocationFix) error
}

// EventRelay is the single-slot handoff between the tracking service and the listener.
type EventRelay interface {
	// Listen installs sink, replacing any previous one without notifying it.
	Listen(sink EventSink)
	// Cancel clears the installed sink.
	Cancel()
	// Detach clears the slot only if sink is still the installed one.
	Detach(sink EventSink) bool
	// Push delivers fix to the installed sink and reports whether it was delivered.
	Push(fix domain.LocationFix) bool
	Listening() bool
}
