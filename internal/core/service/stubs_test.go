package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs shared by the service tests
// ---------------------------------------------------------------------------

type stubSubscription struct{ id string }

func (s stubSubscription) ID() string { return s.id }

// stubProvider records registrations and lets tests emit callbacks by hand.
type stubProvider struct {
	requestErr error
	removeErr  error
	requests   []domain.LocationRequest
	removed    []string
	callback   ports.LocationCallback
	n          int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) RequestLocationUpdates(_ context.Context, req domain.LocationRequest, cb ports.LocationCallback) (ports.Subscription, error) {
	if p.requestErr != nil {
		return nil, p.requestErr
	}
	p.n++
	p.requests = append(p.requests, req)
	p.callback = cb
	return stubSubscription{id: fmt.Sprintf("sub-%d", p.n)}, nil
}

func (p *stubProvider) RemoveLocationUpdates(_ context.Context, sub ports.Subscription) error {
	p.removed = append(p.removed, sub.ID())
	return p.removeErr
}

// emit invokes the registered callback as the platform would.
func (p *stubProvider) emit(fixes ...domain.LocationFix) {
	if p.callback != nil {
		p.callback(domain.LocationResult{Locations: fixes})
	}
}

type stubKeepAlive struct {
	acquireErr error
	releaseErr error
	acquired   []domain.Notification
	released   int
}

func (k *stubKeepAlive) Acquire(_ context.Context, n domain.Notification) error {
	if k.acquireErr != nil {
		return k.acquireErr
	}
	k.acquired = append(k.acquired, n)
	return nil
}

func (k *stubKeepAlive) Release(_ context.Context) error {
	k.released++
	return k.releaseErr
}

// held reports whether a lease is currently held.
func (k *stubKeepAlive) held() bool { return len(k.acquired) > k.released }

type stubSessions struct {
	insertErr error
	inserted  []domain.TrackingSession
	closed    map[string]ports.SessionClose
}

func newStubSessions() *stubSessions {
	return &stubSessions{closed: make(map[string]ports.SessionClose)}
}

func (r *stubSessions) Insert(_ context.Context, s *domain.TrackingSession) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	r.inserted = append(r.inserted, *s)
	return nil
}

func (r *stubSessions) Close(_ context.Context, id string, c ports.SessionClose) error {
	r.closed[id] = c
	return nil
}

func (r *stubSessions) Recent(_ context.Context, limit int) ([]domain.TrackingSession, error) {
	if limit > len(r.inserted) {
		limit = len(r.inserted)
	}
	return r.inserted[:limit], nil
}

// recordingSink collects every fix it receives.
type recordingSink struct {
	mu    sync.Mutex
	fixes []domain.LocationFix
	err   error
}

func (s *recordingSink) Send(fix domain.LocationFix) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixes = append(s.fixes, fix)
	return nil
}

func (s *recordingSink) received() []domain.LocationFix {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.LocationFix(nil), s.fixes...)
}

type stubDispatcher struct {
	intents []domain.Intent
}

func (d *stubDispatcher) Dispatch(intent domain.Intent) {
	d.intents = append(d.intents, intent)
}

var errBoom = errors.New("boom")
