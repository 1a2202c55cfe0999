package provider

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// subscription is the handle returned to the tracking service. Stopping it
// cancels its goroutines and waits for them to exit.
type subscription struct {
	id     string
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

func newSubscription(parent context.Context) (*subscription, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	return &subscription{id: uuid.NewString(), cancel: cancel}, ctx
}

func (s *subscription) ID() string { return s.id }

func (s *subscription) goRun(fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn()
	}()
}

func (s *subscription) stop() {
	s.once.Do(s.cancel)
	s.wg.Wait()
}
