package jsonlocale

import (
	"context"

	"github.com/pitabwire/jsonlocale/workerpool"
)

// WithWorkerPoolOptions tunes the ants pool that parses sources while the service loads.
// The pool is sized from the configuration first and these options are applied over it.
func WithWorkerPoolOptions(options ...workerpool.Option) Option {
	return func(_ context.Context, s *Service) {
		s.poolOptions = append(s.poolOptions, options...)
	}
}
