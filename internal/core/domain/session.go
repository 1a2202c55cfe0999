package domain

import "time"

// SessionOutcome records how a tracking session ended.
type SessionOutcome string

const (
	OutcomeActive           SessionOutcome = "active"
	OutcomeStopped          SessionOutcome = "stopped"
	OutcomePermissionDenied SessionOutcome = "permission_denied"
	OutcomeFailed           SessionOutcome = "failed"
)

// TrackingSession is the audit record of one start/stop lifecycle.
type TrackingSession struct {
	ID             string         `json:"id" bson:"_id"`
	StartedAt      time.Time      `json:"started_at" bson:"started_at"`
	StoppedAt      *time.Time     `json:"stopped_at,omitempty" bson:"stopped_at,omitempty"`
	Outcome        SessionOutcome `json:"outcome" bson:"outcome"`
	Error          string         `json:"error,omitempty" bson:"error,omitempty"`
	Provider       string         `json:"provider" bson:"provider"`
	FixesDelivered int64          `json:"fixes_delivered" bson:"fixes_delivered"`
	FixesDropped   int64          `json:"fixes_dropped" bson:"fixes_dropped"`
}
