package jsonlocale

import (
	"context"
	"log/slog"

	"github.com/pitabwire/util"

	"github.com/pitabwire/jsonlocale/config"
)

// WithLogger Option that helps with initialization of our internal logger.
func WithLogger(opts ...util.Option) Option {
	return func(ctx context.Context, s *Service) {
		if s.Config() != nil {
			cfg, ok := s.Config().(config.ConfigurationLogLevel)
			if ok {
				logLevel, err := util.ParseLevel(cfg.LoggingLevel())
				if err == nil {
					opts = append([]util.Option{util.WithLogLevel(logLevel)}, opts...)
				}
				opts = append([]util.Option{
					util.WithLogTimeFormat(cfg.LoggingTimeFormat()),
					util.WithLogNoColor(!cfg.LoggingColored()),
				}, opts...)
				if cfg.LoggingShowStackTrace() {
					opts = append(opts, util.WithLogStackTrace())
				}
			}
		}

		s.logger = util.NewLogger(ctx, opts...).WithField("service", s.Name())
	}
}

func (s *Service) Log(ctx context.Context) *util.LogEntry {
	return s.logger.WithContext(ctx)
}

func (s *Service) SLog(ctx context.Context) *slog.Logger {
	return s.Log(ctx).SLog()
}
