package ports

import (
	"context"
	"time"

	"github.com/busnap/tracking-bridge/internal/core/domain"
)

// SessionClose carries the final figures of a tracking session.
type SessionClose struct {
	StoppedAt      time.Time
	Outcome        domain.SessionOutcome
	FixesDelivered int64
	FixesDropped   int64
}

// SessionRepository persists tracking session audit records. Fixes themselves are never stored.
type SessionRepository interface {
	Insert(ctx context.Context, s *domain.TrackingSession) error
	Close(ctx context.Context, id string, c SessionClose) error
	// Recent returns the newest sessions first.
	Recent(ctx context.Context, limit int) ([]domain.TrackingSession, error)
}
