// Package logger provides the process-wide zap logger and request-scoped
// helpers that stamp trace identifiers onto log entries.
package logger

import (
	"context"
	"os"
	"strings"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewLogger builds the root zap logger for the given environment and installs
// it as the process global.
func NewLogger(environment string) (*zap.Logger, error) {
	var (
		log *zap.Logger
		err error
	)
	if strings.EqualFold(environment, "production") {
		log, err = zap.NewProduction()
	} else {
		log, err = zap.NewDevelopment()
	}
	if err != nil {
		return nil, err
	}
	zap.ReplaceGlobals(log)
	return log, nil
}

// FromContext returns the global logger enriched with the active trace and
// span IDs when the context carries a sampled span.
func FromContext(ctx context.Context) *zap.Logger {
	log := zap.L()
	if ctx == nil {
		return log
	}
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return log
	}
	return log.With(
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	)
}

// Module provides the root logger and flushes it on shutdown.
var Module = fx.Module("logger",
	fx.Provide(func(lc fx.Lifecycle) (*zap.Logger, error) {
		log, err := NewLogger(environmentFromEnv())
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{
			OnStop: func(context.Context) error {
				_ = log.Sync()
				return nil
			},
		})
		return log, nil
	}),
)

func environmentFromEnv() string {
	return strings.TrimSpace(os.Getenv("PERKA_ENV"))
}
