package services

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/remindhub/remindhub-api/internal/events"
)

// logger returns the request-scoped logger attached by the HTTP middleware,
// or the global logger outside a request.
func logger(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}

// publish hands env to p and logs, but never returns, a failure.
func publish(ctx context.Context, p events.Publisher, env events.Envelope) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, env); err != nil {
		logger(ctx).Warn().Err(err).Str("type", env.Meta.Type).Msg("event publish failed")
	}
}
