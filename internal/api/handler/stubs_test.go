package handler

import (
	"context"
	"fmt"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

type stubGateway struct {
	methods []string
}

func (g *stubGateway) Handle(_ context.Context, method string) (bool, error) {
	g.methods = append(g.methods, method)
	switch method {
	case domain.CommandStartBackgroundTracking, domain.CommandStopBackgroundTracking:
		return true, nil
	default:
		return false, fmt.Errorf("%w: %s", domain.ErrNotImplemented, method)
	}
}

type stubTracking struct {
	status domain.TrackingStatus
}

func (s *stubTracking) HandleIntent(context.Context, domain.Intent) error { return nil }
func (s *stubTracking) Start(context.Context) error                       { return nil }
func (s *stubTracking) Stop(context.Context) error                        { return nil }
func (s *stubTracking) Shutdown(context.Context) error                    { return nil }
func (s *stubTracking) Status() domain.TrackingStatus                     { return s.status }

type stubSessions struct {
	sessions  []domain.TrackingSession
	lastLimit int
}

func (r *stubSessions) Insert(context.Context, *domain.TrackingSession) error { return nil }

func (r *stubSessions) Close(context.Context, string, ports.SessionClose) error { return nil }

func (r *stubSessions) Recent(_ context.Context, limit int) ([]domain.TrackingSession, error) {
	r.lastLimit = limit
	return r.sessions, nil
}

type stubIngester struct {
	err   error
	fixes []domain.LocationFix
}

func (i *stubIngester) Ingest(fix domain.LocationFix) error {
	if i.err != nil {
		return i.err
	}
	i.fixes = append(i.fixes, fix)
	return nil
}
