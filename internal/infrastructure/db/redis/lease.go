package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
)

const (
	leaseKey        = "tracking:lease"
	notificationKey = "tracking:notification"
	defaultLeaseTTL = 30 * time.Second
)

// Both scripts only act while ARGV[1] still owns the lease.
var (
	refreshScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("PEXPIRE", KEYS[2], ARGV[2])
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[2])
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// Lease is a keep-alive lease backed by Redis. Holding it marks this process
// as the one tracking; the notification is published next to it so other
// components can show it. The lease expires after ttl unless refreshed.
// Key format: tracking:lease → owner id, tracking:notification → JSON.
type Lease struct {
	client *redis.Client
	owner  string
	ttl    time.Duration
	log    zerolog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped chan struct{}
}

// NewLease creates a Lease with a random owner id. If ttl <= 0, defaultLeaseTTL is used.
func NewLease(client *redis.Client, ttl time.Duration, log zerolog.Logger) *Lease {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	return &Lease{client: client, owner: uuid.NewString(), ttl: ttl, log: log}
}

var _ ports.KeepAlive = (*Lease)(nil)

// Acquire takes the lease and publishes n. It returns domain.ErrLeaseHeld when
// another owner holds it. Acquiring a lease already held by this owner is a no-op.
func (l *Lease) Acquire(ctx context.Context, n domain.Notification) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		return nil
	}

	ok, err := l.client.SetNX(ctx, leaseKey, l.owner, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire lease: %w", err)
	}
	if !ok {
		return domain.ErrLeaseHeld
	}

	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	if err := l.client.Set(ctx, notificationKey, payload, l.ttl).Err(); err != nil {
		l.log.Warn().Err(err).Msg("failed to publish notification")
	}

	refreshCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.stopped = make(chan struct{})
	go l.refresh(refreshCtx, l.stopped)

	l.log.Info().Str("owner", l.owner).Str("title", n.Title).Msg("keep-alive lease acquired")
	return nil
}

// Release gives the lease up. Releasing a lease that is not held is a no-op.
func (l *Lease) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel == nil {
		return nil
	}
	l.cancel()
	<-l.stopped
	l.cancel, l.stopped = nil, nil

	n, err := releaseScript.Run(ctx, l.client, []string{leaseKey, notificationKey}, l.owner).Int64()
	if err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	if n == 0 {
		l.log.Warn().Str("owner", l.owner).Msg("keep-alive lease had already expired")
	}
	l.log.Info().Str("owner", l.owner).Msg("keep-alive lease released")
	return nil
}

func (l *Lease) refresh(ctx context.Context, stopped chan<- struct{}) {
	defer close(stopped)

	ticker := time.NewTicker(l.ttl / 3)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := refreshScript.Run(ctx, l.client, []string{leaseKey, notificationKey}, l.owner, l.ttl.Milliseconds()).Int64()
			switch {
			case err != nil && ctx.Err() == nil:
				l.log.Warn().Err(err).Msg("keep-alive lease refresh failed")
			case err == nil && n == 0:
				l.log.Error().Str("owner", l.owner).Msg("keep-alive lease lost")
			}
		}
	}
}
