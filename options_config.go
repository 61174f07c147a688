package jsonlocale

import (
	"context"

	"github.com/pitabwire/jsonlocale/config"
)

// WithConfig Option that helps to specify or override the configuration object of our service.
// Sources are discovered from it unless another option supplies them.
func WithConfig(cfg any) Option {
	return func(ctx context.Context, s *Service) {
		s.configuration = cfg

		serviceCfg, ok := cfg.(config.ConfigurationService)
		if ok && serviceCfg.Name() != "" {
			WithName(serviceCfg.Name())(ctx, s)
		}

		WithLogger()(ctx, s)
	}
}

// WithConfigFile loads the configuration from a YAML file overlaid with the environment.
func WithConfigFile(path string) Option {
	return func(ctx context.Context, s *Service) {
		cfg, err := config.FromYAMLFile[config.ConfigurationDefault](path)
		if err != nil {
			s.Log(ctx).WithError(err).WithField("path", path).Error("could not load configuration file")
			s.AddStartupError(err)
			return
		}

		WithConfig(&cfg)(ctx, s)
	}
}

func (s *Service) Config() any {
	return s.configuration
}
