package ports

import (
	"context"

	"github.com/busnap/tracking-bridge/internal/core/domain"
)

// KeepAlive is the lease that keeps the tracking process alive while the
// application is in the background. Holding it shows the notification.
type KeepAlive interface {
	Acquire(ctx context.Context, n domain.Notification) error
	Release(ctx context.Context) error
}
