package domain

import (
	"errors"
	"time"
)

// TrackingState is the lifecycle state of the tracking service.
type TrackingState string

const (
	StateIdle     TrackingState = "idle"
	StateTracking TrackingState = "tracking"
)

// Intent is a lifecycle action delivered to the tracking service.
type Intent string

const (
	IntentStartTracking Intent = "START_TRACKING"
	IntentStopTracking  Intent = "STOP_TRACKING"
)

// Command names accepted on the command channel.
const (
	CommandStartBackgroundTracking = "startBackgroundTracking"
	CommandStopBackgroundTracking  = "stopBackgroundTracking"
)

// Channel names shared with application code.
const (
	CommandChannel = "com.example.busnap/location_service"
	EventChannel   = "com.example.busnap/location_events"
)

var (
	ErrPermissionDenied = errors.New("location permission denied")
	ErrNotImplemented   = errors.New("not implemented")
	ErrLeaseHeld        = errors.New("keep-alive lease held by another owner")
	ErrNotSubscribed    = errors.New("no active location subscription")
	ErrSessionNotFound  = errors.New("tracking session not found")
)

// TrackingStatus is a point-in-time view of the tracking service.
type TrackingStatus struct {
	State     TrackingState
	SessionID string
	StartedAt time.Time
	// LastError is the reason the most recent start attempt failed, if any.
	LastError string
}

// Tracking reports whether the service is in the Tracking state.
func (s TrackingStatus) Tracking() bool {
	return s.State == StateTracking
}
