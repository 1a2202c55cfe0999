package provider

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

// flushResolution is how often pending fixes are re-checked for delivery.
const flushResolution = time.Second

// batcher applies the timing of a LocationRequest to a stream of raw fixes.
// A result is delivered when Interval has passed since the previous delivery
// or the oldest pending fix is MaxUpdateDelay old, and never more often than
// MinUpdateInterval. The callback runs with mu held so results keep their order.
type batcher struct {
	req     domain.LocationRequest
	cb      ports.LocationCallback
	limiter *rate.Limiter
	now     func() time.Time

	mu       sync.Mutex
	pending  []domain.LocationFix
	oldest   time.Time
	lastSent time.Time
}

func newBatcher(req domain.LocationRequest, cb ports.LocationCallback, now func() time.Time) *batcher {
	if now == nil {
		now = time.Now
	}
	limit := rate.Inf
	if req.MinUpdateInterval > 0 {
		limit = rate.Every(req.MinUpdateInterval)
	}
	return &batcher{
		req:     req,
		cb:      cb,
		limiter: rate.NewLimiter(limit, 1),
		now:     now,
	}
}

func (b *batcher) add(fix domain.LocationFix) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	if len(b.pending) == 0 {
		b.oldest = now
	}
	b.pending = append(b.pending, fix)
	b.flushLocked(now)
}

func (b *batcher) tick() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flushLocked(b.now())
}

func (b *batcher) flushLocked(now time.Time) {
	if len(b.pending) == 0 {
		return
	}
	due := b.lastSent.IsZero() ||
		now.Sub(b.lastSent) >= b.req.Interval ||
		(b.req.MaxUpdateDelay > 0 && now.Sub(b.oldest) >= b.req.MaxUpdateDelay)
	if !due || !b.limiter.AllowN(now, 1) {
		return
	}

	batch := b.pending
	b.pending = nil
	b.lastSent = now
	b.cb(domain.LocationResult{Locations: batch})
}

// run ticks the batcher until ctx is done.
func (b *batcher) run(ctx context.Context) {
	ticker := time.NewTicker(flushResolution)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.tick()
		}
	}
}
