package keepalive

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
)

func TestLogLease_AcquireRelease(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogLease(zerolog.New(&buf))
	ctx := context.Background()

	if err := l.Acquire(ctx, domain.DefaultNotification()); err != nil {
		t.Fatalf("acquire: %v", err)
	}
	if !l.Held() {
		t.Fatal("expected lease held")
	}
	if !strings.Contains(buf.String(), "Busnap Location Tracking") {
		t.Errorf("expected notification title in log, got %q", buf.String())
	}

	if err := l.Release(ctx); err != nil {
		t.Fatalf("release: %v", err)
	}
	if l.Held() {
		t.Error("expected lease released")
	}
}

func TestLogLease_IdempotentTransitions(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogLease(zerolog.New(&buf))
	ctx := context.Background()

	if err := l.Release(ctx); err != nil {
		t.Fatalf("release while not held: %v", err)
	}
	_ = l.Acquire(ctx, domain.DefaultNotification())
	_ = l.Acquire(ctx, domain.DefaultNotification())

	if n := strings.Count(buf.String(), "foreground notification shown"); n != 1 {
		t.Errorf("expected notification shown once, got %d", n)
	}
	if n := strings.Count(buf.String(), "notification channel registered"); n != 1 {
		t.Errorf("expected channel registered once, got %d", n)
	}
}
