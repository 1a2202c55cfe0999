package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
	"github.com/busnap/tracking-bridge/internal/pkg/metrics"
)

// TrackingService is the Idle/Tracking state machine. It owns the tracking
// flag and the single provider subscription: sub is non-nil iff tracking.
type TrackingService struct {
	provider  ports.LocationProvider
	keepAlive ports.KeepAlive
	relay     ports.EventRelay
	sessions  ports.SessionRepository // optional
	log       zerolog.Logger
	now       func() time.Time

	mu       sync.Mutex
	tracking bool
	sub      ports.Subscription
	session  *domain.TrackingSession
	lastErr  string

	delivered atomic.Int64
	dropped   atomic.Int64
}

// NewTrackingService wires the state machine. sessions may be nil, in which
// case no audit records are written.
func NewTrackingService(
	provider ports.LocationProvider,
	keepAlive ports.KeepAlive,
	relay ports.EventRelay,
	sessions ports.SessionRepository,
	log zerolog.Logger,
) *TrackingService {
	return &TrackingService{
		provider:  provider,
		keepAlive: keepAlive,
		relay:     relay,
		sessions:  sessions,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ ports.TrackingService = (*TrackingService)(nil)

// HandleIntent applies a lifecycle intent. Unknown intents are ignored.
func (s *TrackingService) HandleIntent(ctx context.Context, intent domain.Intent) error {
	switch intent {
	case domain.IntentStartTracking:
		return s.Start(ctx)
	case domain.IntentStopTracking:
		return s.Stop(ctx)
	default:
		s.log.Warn().Str("intent", string(intent)).Msg("ignoring unknown intent")
		return nil
	}
}

// Start moves Idle → Tracking: it registers the fixed location request,
// acquires the keep-alive lease and opens a session. Starting while already
// tracking is a no-op. On failure the service stays Idle and the cause is
// returned and kept for Status.
func (s *TrackingService) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tracking {
		return nil
	}

	sub, err := s.provider.RequestLocationUpdates(ctx, domain.DefaultLocationRequest(), s.onLocationResult)
	if err != nil {
		reason, outcome := "provider", domain.OutcomeFailed
		if errors.Is(err, domain.ErrPermissionDenied) {
			reason, outcome = "permission_denied", domain.OutcomePermissionDenied
		}
		s.abortStart(ctx, reason, outcome, err)
		return fmt.Errorf("start tracking: %w", err)
	}

	if err := s.keepAlive.Acquire(ctx, domain.DefaultNotification()); err != nil {
		if rmErr := s.provider.RemoveLocationUpdates(ctx, sub); rmErr != nil {
			s.log.Warn().Err(rmErr).Msg("failed to roll back location subscription")
		}
		s.abortStart(ctx, "lease", domain.OutcomeFailed, err)
		return fmt.Errorf("start tracking: acquire keep-alive: %w", err)
	}

	s.sub = sub
	s.tracking = true
	s.lastErr = ""
	s.delivered.Store(0)
	s.dropped.Store(0)
	s.session = &domain.TrackingSession{
		ID:        uuid.NewString(),
		StartedAt: s.now(),
		Outcome:   domain.OutcomeActive,
		Provider:  s.provider.Name(),
	}
	if s.sessions != nil {
		if err := s.sessions.Insert(ctx, s.session); err != nil {
			s.log.Warn().Err(err).Str("session_id", s.session.ID).Msg("failed to record session start")
		}
	}

	metrics.TrackingActive.Set(1)
	s.log.Info().
		Str("session_id", s.session.ID).
		Str("provider", s.provider.Name()).
		Str("subscription", sub.ID()).
		Msg("location tracking started")
	return nil
}

// abortStart records a failed Idle → Tracking transition. Callers hold mu.
func (s *TrackingService) abortStart(ctx context.Context, reason string, outcome domain.SessionOutcome, cause error) {
	s.lastErr = cause.Error()
	metrics.StartFailuresTotal.WithLabelValues(reason).Inc()
	s.log.Warn().Err(cause).Str("reason", reason).Msg("location tracking not started")

	if s.sessions == nil {
		return
	}
	now := s.now()
	failed := &domain.TrackingSession{
		ID:        uuid.NewString(),
		StartedAt: now,
		StoppedAt: &now,
		Outcome:   outcome,
		Error:     cause.Error(),
		Provider:  s.provider.Name(),
	}
	if err := s.sessions.Insert(ctx, failed); err != nil {
		s.log.Warn().Err(err).Msg("failed to record aborted session")
	}
}

// Stop moves Tracking → Idle: it removes the subscription, releases the lease
// and closes the session. Stopping while idle is a no-op. The state always
// ends Idle; cleanup errors are returned joined.
func (s *TrackingService) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.tracking {
		return nil
	}

	var errs []error
	if err := s.provider.RemoveLocationUpdates(ctx, s.sub); err != nil {
		errs = append(errs, fmt.Errorf("remove location updates: %w", err))
	}
	s.sub = nil
	s.tracking = false
	metrics.TrackingActive.Set(0)

	if err := s.keepAlive.Release(ctx); err != nil {
		errs = append(errs, fmt.Errorf("release keep-alive: %w", err))
	}

	session := s.session
	s.session = nil
	delivered, dropped := s.delivered.Load(), s.dropped.Load()
	if s.sessions != nil && session != nil {
		err := s.sessions.Close(ctx, session.ID, ports.SessionClose{
			StoppedAt:      s.now(),
			Outcome:        domain.OutcomeStopped,
			FixesDelivered: delivered,
			FixesDropped:   dropped,
		})
		if err != nil {
			s.log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to record session stop")
		}
	}

	evt := s.log.Info().Int64("delivered", delivered).Int64("dropped", dropped)
	if session != nil {
		evt = evt.Str("session_id", session.ID)
	}
	evt.Msg("location tracking stopped")

	if len(errs) > 0 {
		return fmt.Errorf("stop tracking: %w", errors.Join(errs...))
	}
	return nil
}

// Shutdown stops tracking on process teardown.
func (s *TrackingService) Shutdown(ctx context.Context) error {
	return s.Stop(ctx)
}

// Status returns a snapshot of the state machine.
func (s *TrackingService) Status() domain.TrackingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := domain.TrackingStatus{State: domain.StateIdle, LastError: s.lastErr}
	if s.tracking {
		st.State = domain.StateTracking
	}
	if s.session != nil {
		st.SessionID = s.session.ID
		st.StartedAt = s.session.StartedAt
	}
	return st
}

// onLocationResult forwards the newest fix of every callback to the relay.
// It does not take mu: a callback already in flight when Stop runs is still
// delivered.
func (s *TrackingService) onLocationResult(result domain.LocationResult) {
	fix, ok := result.LastLocation()
	if !ok {
		return
	}
	metrics.FixesReceivedTotal.WithLabelValues(s.provider.Name()).Inc()
	if s.relay.Push(fix) {
		s.delivered.Add(1)
	} else {
		s.dropped.Add(1)
	}
}
