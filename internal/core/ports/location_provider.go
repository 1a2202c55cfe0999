package ports

import (
	"context"

	"github.com/busnap/tracking-bridge/internal/core/domain"
)

// LocationCallback receives every result a provider emits for a subscription.
// Providers invoke it from a single goroutine, so results arrive in emission order.
type LocationCallback func(result domain.LocationResult)

// Subscription is the opaque handle returned when updates are requested.
type Subscription interface {
	ID() string
}

// LocationProvider is the platform source of location fixes.
type LocationProvider interface {
	// Name identifies the provider in logs and session records.
	Name() string
	// RequestLocationUpdates registers cb for results matching req. A missing
	// permission is reported as an error wrapping domain.ErrPermissionDenied.
	RequestLocationUpdates(ctx context.Context, req domain.LocationRequest, cb LocationCallback) (Subscription, error)
	// RemoveLocationUpdates cancels a subscription. Removing an unknown or
	// already removed subscription is not an error.
	RemoveLocationUpdates(ctx context.Context, sub Subscription) error
}
