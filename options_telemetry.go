package jsonlocale

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitabwire/jsonlocale/localization"
)

// WithMetrics records lookup and load counters on meter instead of the global meter provider.
func WithMetrics(meter metric.Meter) Option {
	return func(ctx context.Context, s *Service) {
		m, err := localization.NewMetrics(meter)
		if err != nil {
			s.Log(ctx).WithError(err).Error("could not register localization metrics")
			s.AddStartupError(err)
			return
		}
		s.metrics = m
	}
}

// WithTracerProvider traces source loading on tp instead of the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(_ context.Context, s *Service) {
		s.buildOpts = append(s.buildOpts, localization.WithTracerProvider(tp))
	}
}
