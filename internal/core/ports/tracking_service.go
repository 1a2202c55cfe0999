package ports

import (
	"context"

	"github.com/busnap/tracking-bridge/internal/core/domain"
)

// TrackingService owns the tracking flag and the single provider subscription.
type TrackingService interface {
	HandleIntent(ctx context.Context, intent domain.Intent) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Status() domain.TrackingStatus
	// Shutdown stops tracking on process teardown.
	Shutdown(ctx context.Context) error
}

// IntentDispatcher hands intents to the tracking service without waiting for them.
type IntentDispatcher interface {
	Dispatch(intent domain.Intent)
}

// CommandGateway translates command channel calls into intents.
type CommandGateway interface {
	Handle(ctx context.Context, method string) (bool, error)
}
