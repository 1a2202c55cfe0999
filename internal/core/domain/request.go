package domain

import "time"

// Priority expresses the accuracy/power trade-off asked of the provider.
type Priority string

const (
	PriorityHighAccuracy  Priority = "high_accuracy"
	PriorityBalancedPower Priority = "balanced_power"
	PriorityLowPower      Priority = "low_power"
	PriorityPassive       Priority = "passive"
)

const (
	DefaultUpdateInterval    = 10 * time.Second
	DefaultMinUpdateInterval = 5 * time.Second
	DefaultMaxUpdateDelay    = 15 * time.Second
)

// LocationRequest configures how often a provider reports fixes.
//   - Interval: desired time between deliveries.
//   - MinUpdateInterval: deliveries are never closer together than this.
//   - MaxUpdateDelay: fixes may be held back and batched for at most this long.
type LocationRequest struct {
	Interval          time.Duration
	MinUpdateInterval time.Duration
	MaxUpdateDelay    time.Duration
	Priority          Priority
}

// DefaultLocationRequest is the fixed request registered on every start.
func DefaultLocationRequest() LocationRequest {
	return LocationRequest{
		Interval:          DefaultUpdateInterval,
		MinUpdateInterval: DefaultMinUpdateInterval,
		MaxUpdateDelay:    DefaultMaxUpdateDelay,
		Priority:          PriorityHighAccuracy,
	}
}
