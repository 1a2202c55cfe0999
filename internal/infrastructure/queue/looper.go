package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
	"github.com/busnap/tracking-bridge/internal/pkg/metrics"
)

const defaultBuffer = 64

// ErrStopped is returned by Flush once Run has exited.
var ErrStopped = errors.New("looper stopped")

// item is either an intent for the tracking service or a flush barrier.
type item struct {
	intent  domain.Intent
	barrier chan struct{}
}

// Looper hands intents to the tracking service from a single worker, so
// lifecycle actions run one at a time and in the order they were dispatched.
type Looper struct {
	ch      chan item
	service ports.TrackingService
	log     zerolog.Logger

	done     chan struct{} // closed when Run exits
	doneOnce sync.Once
}

// NewLooper creates a Looper with a channel of the given capacity.
// If buffer <= 0, defaultBuffer is used.
func NewLooper(buffer int, service ports.TrackingService, log zerolog.Logger) *Looper {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Looper{
		ch:      make(chan item, buffer),
		service: service,
		log:     log,
		done:    make(chan struct{}),
	}
}

var _ ports.IntentDispatcher = (*Looper)(nil)

// Run drains intents until ctx is cancelled. It blocks; start it in its own goroutine.
func (l *Looper) Run(ctx context.Context) {
	defer l.doneOnce.Do(func() { close(l.done) })
	for {
		select {
		case <-ctx.Done():
			return
		case it := <-l.ch:
			metrics.IntentQueueDepth.Set(float64(len(l.ch)))
			if it.barrier != nil {
				close(it.barrier)
				continue
			}
			l.handle(ctx, it.intent)
		}
	}
}

// Dispatch enqueues an intent. The call is non-blocking up to the buffer
// capacity. Once Run has exited the intent is dropped with a warning.
func (l *Looper) Dispatch(intent domain.Intent) {
	select {
	case <-l.done:
		l.dropped(intent)
		return
	default:
	}

	select {
	case l.ch <- item{intent: intent}:
		metrics.IntentQueueDepth.Set(float64(len(l.ch)))
	case <-l.done:
		l.dropped(intent)
	}
}

func (l *Looper) dropped(intent domain.Intent) {
	l.log.Warn().Str("intent", string(intent)).Msg("looper stopped, dropping intent")
}

// Flush blocks until every intent dispatched before the call has been handled.
func (l *Looper) Flush(ctx context.Context) error {
	barrier := make(chan struct{})
	select {
	case l.ch <- item{barrier: barrier}:
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-barrier:
		return nil
	case <-l.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *Looper) handle(ctx context.Context, intent domain.Intent) {
	start := time.Now()
	err := l.service.HandleIntent(ctx, intent)
	metrics.IntentProcessingDuration.WithLabelValues(string(intent)).Observe(time.Since(start).Seconds())
	if err != nil {
		l.log.Error().Err(err).
			Str("intent", string(intent)).
			Msg("intent handling failed")
	}
}
