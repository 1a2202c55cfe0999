package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/busnap/tracking-bridge/internal/core/domain"
	"github.com/busnap/tracking-bridge/internal/core/ports"
	"github.com/busnap/tracking-bridge/internal/pkg/metrics"
)

// CommandGateway maps command channel methods to tracking intents. The boolean
// result only acknowledges that the intent was dispatched.
type CommandGateway struct {
	dispatcher ports.IntentDispatcher
	log        zerolog.Logger
}

func NewCommandGateway(dispatcher ports.IntentDispatcher, log zerolog.Logger) *CommandGateway {
	return &CommandGateway{dispatcher: dispatcher, log: log}
}

var _ ports.CommandGateway = (*CommandGateway)(nil)

// Handle dispatches the intent behind method. Unknown methods yield
// domain.ErrNotImplemented and dispatch nothing.
func (g *CommandGateway) Handle(ctx context.Context, method string) (bool, error) {
	var intent domain.Intent
	switch method {
	case domain.CommandStartBackgroundTracking:
		intent = domain.IntentStartTracking
	case domain.CommandStopBackgroundTracking:
		intent = domain.IntentStopTracking
	default:
		metrics.CommandsTotal.WithLabelValues("unknown", "not_implemented").Inc()
		g.log.Debug().Str("method", method).Msg("command not implemented")
		return false, fmt.Errorf("%w: %s", domain.ErrNotImplemented, method)
	}

	g.dispatcher.Dispatch(intent)
	metrics.CommandsTotal.WithLabelValues(method, "dispatched").Inc()
	g.log.Info().Str("method", method).Str("intent", string(intent)).Msg("command dispatched")
	return true, nil
}
