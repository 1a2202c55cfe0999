package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
)

// ---------------------------------------------------------------------------
// Helper: a service wired to stubs and a real relay.
// ---------------------------------------------------------------------------

type trackingFixture struct {
	svc       *TrackingService
	provider  *stubProvider
	keepAlive *stubKeepAlive
	relay     *EventRelay
	sessions  *stubSessions
}

func newTrackingFixture() *trackingFixture {
	f := &trackingFixture{
		provider:  &stubProvider{},
		keepAlive: &stubKeepAlive{},
		relay:     NewEventRelay(zerolog.Nop()),
		sessions:  newStubSessions(),
	}
	f.svc = NewTrackingService(f.provider, f.keepAlive, f.relay, f.sessions, zerolog.Nop())
	return f
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestTrackingService_Start_RegistersFixedRequest(t *testing.T) {
	f := newTrackingFixture()

	if err := f.svc.Start(context.Background()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	if !f.svc.Status().Tracking() {
		t.Fatal("expected tracking after start")
	}
	if len(f.provider.requests) != 1 {
		t.Fatalf("expected one registration, got %d", len(f.provider.requests))
	}
	req := f.provider.requests[0]
	if req != domain.DefaultLocationRequest() {
		t.Errorf("unexpected request: %+v", req)
	}
	if len(f.keepAlive.acquired) != 1 || f.keepAlive.acquired[0] != domain.DefaultNotification() {
		t.Errorf("expected lease acquired with default notification, got %+v", f.keepAlive.acquired)
	}
	if len(f.sessions.inserted) != 1 || f.sessions.inserted[0].Outcome != domain.OutcomeActive {
		t.Errorf("expected active session recorded, got %+v", f.sessions.inserted)
	}
	if f.svc.Status().SessionID != f.sessions.inserted[0].ID {
		t.Error("status should expose the active session id")
	}
}

func TestTrackingService_StartTwice_IsNoop(t *testing.T) {
	f := newTrackingFixture()
	ctx := context.Background()

	_ = f.svc.Start(ctx)
	if err := f.svc.Start(ctx); err != nil {
		t.Fatalf("second start should not fail, got: %v", err)
	}
	if len(f.provider.requests) != 1 {
		t.Errorf("expected a single registration, got %d", len(f.provider.requests))
	}
	if len(f.keepAlive.acquired) != 1 {
		t.Errorf("expected a single lease, got %d", len(f.keepAlive.acquired))
	}
}

func TestTrackingService_StopWhileIdle_IsNoop(t *testing.T) {
	f := newTrackingFixture()

	if err := f.svc.Stop(context.Background()); err != nil {
		t.Fatalf("stop while idle should not fail, got: %v", err)
	}
	if len(f.provider.removed) != 0 || f.keepAlive.released != 0 {
		t.Error("stop while idle must not touch provider or lease")
	}
}

func TestTrackingService_StartStartStop_EndsIdle(t *testing.T) {
	f := newTrackingFixture()
	ctx := context.Background()

	_ = f.svc.Start(ctx)
	_ = f.svc.Start(ctx)
	_ = f.svc.Stop(ctx)

	if f.svc.Status().Tracking() {
		t.Fatal("expected idle after start;start;stop")
	}
	if f.keepAlive.held() {
		t.Error("lease should be released")
	}
	if len(f.provider.removed) != 1 {
		t.Errorf("expected one deregistration, got %v", f.provider.removed)
	}
}

func TestTrackingService_CommandSequences(t *testing.T) {
	// tracking is true iff the last effective command was a start.
	cases := []struct {
		seq  string
		want bool
	}{
		{"", false},
		{"S", true},
		{"SS", true},
		{"SP", false},
		{"SSP", false},
		{"P", false},
		{"PP", false},
		{"PS", true},
		{"SPS", true},
		{"SPSP", false},
		{"SSPPS", true},
	}

	for _, tc := range cases {
		t.Run(fmt.Sprintf("seq_%s", tc.seq), func(t *testing.T) {
			f := newTrackingFixture()
			ctx := context.Background()
			for _, c := range tc.seq {
				switch c {
				case 'S':
					_ = f.svc.HandleIntent(ctx, domain.IntentStartTracking)
				case 'P':
					_ = f.svc.HandleIntent(ctx, domain.IntentStopTracking)
				}
			}
			if got := f.svc.Status().Tracking(); got != tc.want {
				t.Errorf("tracking = %v, want %v", got, tc.want)
			}
			if f.keepAlive.held() != tc.want {
				t.Errorf("lease held = %v, want %v", f.keepAlive.held(), tc.want)
			}
		})
	}
}

func TestTrackingService_PermissionDenied_StaysIdle(t *testing.T) {
	f := newTrackingFixture()
	f.provider.requestErr = fmt.Errorf("open /dev/ttyACM0: %w", domain.ErrPermissionDenied)
	sink := &recordingSink{}
	f.relay.Listen(sink)

	err := f.svc.Start(context.Background())

	if !errors.Is(err, domain.ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got: %v", err)
	}
	st := f.svc.Status()
	if st.Tracking() {
		t.Error("expected idle after permission denial")
	}
	if st.LastError == "" {
		t.Error("expected the failure to be reported in status")
	}
	if len(f.keepAlive.acquired) != 0 {
		t.Error("no keep-alive lease may be acquired on permission denial")
	}
	f.provider.emit(domain.LocationFix{Latitude: 1})
	if len(sink.received()) != 0 {
		t.Error("no event may arrive after permission denial")
	}
	if len(f.sessions.inserted) != 1 || f.sessions.inserted[0].Outcome != domain.OutcomePermissionDenied {
		t.Errorf("expected permission_denied session, got %+v", f.sessions.inserted)
	}
}

func TestTrackingService_RetryAfterPermissionDenied_ClearsError(t *testing.T) {
	f := newTrackingFixture()
	ctx := context.Background()
	f.provider.requestErr = domain.ErrPermissionDenied

	_ = f.svc.Start(ctx)
	f.provider.requestErr = nil
	if err := f.svc.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st := f.svc.Status()
	if !st.Tracking() || st.LastError != "" {
		t.Errorf("expected tracking with cleared error, got %+v", st)
	}
}

func TestTrackingService_LeaseFailure_RollsBackSubscription(t *testing.T) {
	f := newTrackingFixture()
	f.keepAlive.acquireErr = domain.ErrLeaseHeld

	err := f.svc.Start(context.Background())

	if !errors.Is(err, domain.ErrLeaseHeld) {
		t.Fatalf("expected ErrLeaseHeld, got: %v", err)
	}
	if f.svc.Status().Tracking() {
		t.Error("expected idle when the lease cannot be acquired")
	}
	if len(f.provider.removed) != 1 {
		t.Errorf("expected subscription rolled back, got %v", f.provider.removed)
	}
}

func TestTrackingService_Stop_ReleasesAndClosesSession(t *testing.T) {
	f := newTrackingFixture()
	ctx := context.Background()
	sink := &recordingSink{}

	_ = f.svc.Start(ctx)
	f.provider.emit(domain.LocationFix{Latitude: 1}) // nobody listening
	f.relay.Listen(sink)
	f.provider.emit(domain.LocationFix{Latitude: 2})
	f.provider.emit(domain.LocationFix{Latitude: 3})
	id := f.svc.Status().SessionID

	if err := f.svc.Stop(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	closed, ok := f.sessions.closed[id]
	if !ok {
		t.Fatal("expected session closed")
	}
	if closed.Outcome != domain.OutcomeStopped {
		t.Errorf("unexpected outcome: %s", closed.Outcome)
	}
	if closed.FixesDelivered != 2 || closed.FixesDropped != 1 {
		t.Errorf("expected 2 delivered / 1 dropped, got %d / %d", closed.FixesDelivered, closed.FixesDropped)
	}
	if f.keepAlive.released != 1 {
		t.Error("expected lease released")
	}
	if f.svc.Status().SessionID != "" {
		t.Error("expected no session after stop")
	}
}

func TestTrackingService_Stop_CleanupErrorsStillEndIdle(t *testing.T) {
	f := newTrackingFixture()
	ctx := context.Background()
	_ = f.svc.Start(ctx)
	f.provider.removeErr = errBoom
	f.keepAlive.releaseErr = errBoom

	err := f.svc.Stop(ctx)

	if !errors.Is(err, errBoom) {
		t.Fatalf("expected cleanup error, got: %v", err)
	}
	if f.svc.Status().Tracking() {
		t.Error("expected idle even when cleanup fails")
	}
}

func TestTrackingService_SessionStoreFailureIsNonFatal(t *testing.T) {
	f := newTrackingFixture()
	f.sessions.insertErr = errors.New("mongo unavailable")

	if err := f.svc.Start(context.Background()); err != nil {
		t.Fatalf("expected session failure to be non-fatal, got: %v", err)
	}
	if !f.svc.Status().Tracking() {
		t.Error("expected tracking")
	}
}

func TestTrackingService_NilSessionRepository(t *testing.T) {
	provider := &stubProvider{}
	svc := NewTrackingService(provider, &stubKeepAlive{}, NewEventRelay(zerolog.Nop()), nil, zerolog.Nop())
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTrackingService_EmptyResultForwardsNothing(t *testing.T) {
	f := newTrackingFixture()
	sink := &recordingSink{}
	f.relay.Listen(sink)
	_ = f.svc.Start(context.Background())

	f.provider.emit()

	if len(sink.received()) != 0 {
		t.Errorf("expected nothing forwarded, got %v", sink.received())
	}
}

func TestTrackingService_BatchedResultForwardsLastLocation(t *testing.T) {
	f := newTrackingFixture()
	sink := &recordingSink{}
	f.relay.Listen(sink)
	_ = f.svc.Start(context.Background())

	f.provider.emit(
		domain.LocationFix{Latitude: 1, TimestampMillis: 1},
		domain.LocationFix{Latitude: 2, TimestampMillis: 2},
	)

	got := sink.received()
	if len(got) != 1 || got[0].Latitude != 2 {
		t.Errorf("expected only the newest fix, got %v", got)
	}
}

func TestTrackingService_InFlightCallbackAfterStopIsDelivered(t *testing.T) {
	f := newTrackingFixture()
	ctx := context.Background()
	sink := &recordingSink{}
	f.relay.Listen(sink)
	_ = f.svc.Start(ctx)
	cb := f.provider.callback

	_ = f.svc.Stop(ctx)
	cb(domain.LocationResult{Locations: []domain.LocationFix{{Latitude: 9}}})

	if len(sink.received()) != 1 {
		t.Errorf("expected the in-flight fix to be delivered, got %v", sink.received())
	}
}

func TestTrackingService_ListenAfterEmission_MissesFix(t *testing.T) {
	f := newTrackingFixture()
	ctx := context.Background()
	_ = f.svc.Start(ctx)

	f.provider.emit(domain.LocationFix{Latitude: 1, Longitude: 2, Accuracy: 5, TimestampMillis: 1000})
	sink := &recordingSink{}
	f.relay.Listen(sink)

	if len(sink.received()) != 0 {
		t.Fatalf("listener installed after emission must receive nothing, got %v", sink.received())
	}

	f.provider.emit(domain.LocationFix{Latitude: 3, Longitude: 4, Accuracy: 2, TimestampMillis: 2000})

	got := sink.received()
	want := domain.LocationFix{Latitude: 3, Longitude: 4, Accuracy: 2, TimestampMillis: 2000}
	if len(got) != 1 || got[0] != want {
		t.Errorf("expected exactly %+v, got %v", want, got)
	}
}

func TestTrackingService_HandleIntent_UnknownIgnored(t *testing.T) {
	f := newTrackingFixture()

	if err := f.svc.HandleIntent(context.Background(), domain.Intent("REBOOT")); err != nil {
		t.Fatalf("unknown intent should be ignored, got: %v", err)
	}
	if f.svc.Status().Tracking() {
		t.Error("unknown intent must not change state")
	}
}

func TestTrackingService_Shutdown_StopsTracking(t *testing.T) {
	f := newTrackingFixture()
	ctx := context.Background()
	_ = f.svc.Start(ctx)

	if err := f.svc.Shutdown(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.svc.Status().Tracking() || f.keepAlive.held() {
		t.Error("expected idle with lease released after shutdown")
	}
}
