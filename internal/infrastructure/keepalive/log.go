// Package keepalive holds keep-alive lease adapters that need no external service.
package keepalive

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

// LogLease "shows" the notification by logging it. It suits a daemon that is
// already supervised (systemd, a container runtime) and needs no lock.
type LogLease struct {
	log zerolog.Logger

	mu         sync.Mutex
	held       bool
	registered bool
}

func NewLogLease(log zerolog.Logger) *LogLease {
	return &LogLease{log: log}
}

var _ ports.KeepAlive = (*LogLease)(nil)

func (l *LogLease) Acquire(_ context.Context, n domain.Notification) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.registered {
		l.log.Info().
			Str("channel_id", n.ChannelID).
			Str("channel_name", n.ChannelName).
			Str("description", n.ChannelDescription).
			Msg("notification channel registered")
		l.registered = true
	}
	if l.held {
		return nil
	}
	l.held = true
	l.log.Info().
		Str("title", n.Title).
		Str("body", n.Body).
		Str("priority", string(n.Priority)).
		Bool("ongoing", n.Ongoing).
		Str("content_url", n.ContentURL).
		Msg("foreground notification shown")
	return nil
}

func (l *LogLease) Release(_ context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.held {
		return nil
	}
	l.held = false
	l.log.Info().Msg("foreground notification removed")
	return nil
}

// Held reports whether the lease is currently held.
func (l *LogLease) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}
