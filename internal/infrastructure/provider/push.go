package provider

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

// PushProvider is fed by a device posting fixes over HTTP. Fixes only flow
// while the tracking service holds a subscription.
type PushProvider struct {
	now func() time.Time
	log zerolog.Logger

	mu      sync.Mutex
	sub     *subscription
	batcher *batcher
}

func NewPushProvider(log zerolog.Logger) *PushProvider {
	return &PushProvider{now: time.Now, log: log}
}

var _ ports.LocationProvider = (*PushProvider)(nil)

func (p *PushProvider) Name() string { return "push" }

// RequestLocationUpdates installs the subscription, replacing an earlier one.
func (p *PushProvider) RequestLocationUpdates(ctx context.Context, req domain.LocationRequest, cb ports.LocationCallback) (ports.Subscription, error) {
	sub, subCtx := newSubscription(context.WithoutCancel(ctx))
	b := newBatcher(req, cb, p.now)
	sub.goRun(func() { b.run(subCtx) })

	p.mu.Lock()
	prev := p.sub
	p.sub, p.batcher = sub, b
	p.mu.Unlock()

	if prev != nil {
		prev.stop()
	}
	p.log.Debug().Str("subscription", sub.id).Dur("interval", req.Interval).Msg("push subscription installed")
	return sub, nil
}

func (p *PushProvider) RemoveLocationUpdates(_ context.Context, s ports.Subscription) error {
	if s == nil {
		return nil
	}
	p.mu.Lock()
	sub := p.sub
	if sub == nil || sub.id != s.ID() {
		p.mu.Unlock()
		return nil
	}
	p.sub, p.batcher = nil, nil
	p.mu.Unlock()

	sub.stop()
	return nil
}

// Ingest feeds one fix into the active subscription.
func (p *PushProvider) Ingest(fix domain.LocationFix) error {
	if err := fix.Validate(); err != nil {
		return err
	}
	p.mu.Lock()
	b := p.batcher
	p.mu.Unlock()

	if b == nil {
		return domain.ErrNotSubscribed
	}
	b.add(fix)
	return nil
}

// Subscribed reports whether a subscription is active.
func (p *PushProvider) Subscribed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sub != nil
}
