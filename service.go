package jsonlocale

import (
	"context"
	"errors"
	"sync"

	"github.com/pitabwire/util"
	"gocloud.dev/blob"

	"github.com/pitabwire/jsonlocale/config"
	"github.com/pitabwire/jsonlocale/localization"
	"github.com/pitabwire/jsonlocale/localization/source"
	"github.com/pitabwire/jsonlocale/workerpool"
)

type contextKey string

func (c contextKey) String() string {
	return "jsonlocale/" + string(c)
}

const ctxKeyService = contextKey("serviceKey")

// ErrNoSources is reported by Validate when discovery found nothing to load.
var ErrNoSources = errors.New("no localization sources found")

// Service holds together the localized string cache of an application.
// An instance is built once at startup, is safe for concurrent use and is
// pushed and pulled from contexts to make it easy to pass around.
type Service struct {
	name          string
	configuration any
	logger        *util.LogEntry

	manifest      source.Manifest
	sourcesSet    bool
	poolOptions   []workerpool.Option
	metrics       *localization.Metrics
	buildOpts     []localization.BuildOption
	localizerOpts []localization.Option

	bucketsMu sync.Mutex
	buckets   []*blob.Bucket

	store      *localization.Store
	localizer  *localization.Localizer
	html       *localization.HTMLLocalizer
	translator *localization.Translator

	startupErrors []error
	loadErr       error
	loadErrors    []*localization.LoadError
	closeOnce     sync.Once
}

type Option func(ctx context.Context, service *Service)

// NewService creates the Service, discovers and loads its sources and returns a context
// carrying the service, its configuration and logger.
//
// Loading never fails outright: sources that could not be read are reported by LoadErrors
// and Err while every other source stays usable.
func NewService(ctx context.Context, name string, opts ...Option) (context.Context, *Service) {
	defaultLogger := util.Log(ctx)
	ctx = util.ContextWithLogger(ctx, defaultLogger)

	defaultCfg, err := config.FromEnv[config.ConfigurationDefault]()
	if err != nil {
		defaultLogger.WithError(err).Warn("could not read configuration from environment")
	}

	defaultMetrics, err := localization.NewMetrics(nil)
	if err != nil {
		defaultLogger.WithError(err).Warn("could not register localization metrics")
	}

	service := &Service{
		name:          name,
		configuration: &defaultCfg,
		logger:        defaultLogger,
		metrics:       defaultMetrics,
	}

	if defaultCfg.ServiceName != "" {
		opts = append([]Option{WithName(defaultCfg.ServiceName)}, opts...)
	}

	opts = append([]Option{WithLogger()}, opts...) // Ensure logger is initialized early

	service.Init(ctx, opts...)
	service.load(ctx)

	ctx = ToContext(ctx, service)
	ctx = config.ToContext(ctx, service.Config())
	ctx = util.ContextWithLogger(ctx, service.logger)
	return ctx, service
}

// ToContext pushes a service instance into the supplied context for easier propagation.
func ToContext(ctx context.Context, service *Service) context.Context {
	return context.WithValue(ctx, ctxKeyService, service)
}

// FromContext obtains a service instance being propagated through the context.
func FromContext(ctx context.Context) *Service {
	service, ok := ctx.Value(ctxKeyService).(*Service)
	if !ok {
		return nil
	}

	return service
}

// Name gets the name of the service. Its the second argument used when NewService is called.
func (s *Service) Name() string {
	return s.name
}

// WithName specifies the name the service will utilize.
func WithName(name string) Option {
	return func(_ context.Context, s *Service) {
		s.name = name
	}
}

// Init evaluates the options provided as arguments and supplies them to the service object.
func (s *Service) Init(ctx context.Context, opts ...Option) {
	for _, opt := range opts {
		opt(ctx, s)
	}
}

// AddStartupError records a failure of an option so Err can report it.
func (s *Service) AddStartupError(err error) {
	if err != nil {
		s.startupErrors = append(s.startupErrors, err)
	}
}

func (s *Service) Store() *localization.Store {
	return s.store
}

func (s *Service) Localizer() *localization.Localizer {
	return s.localizer
}

func (s *Service) HTML() *localization.HTMLLocalizer {
	return s.html
}

// Translator renders the loaded strings through go-i18n. It is nil when the
// configured default culture is not a valid language tag.
func (s *Service) Translator() *localization.Translator {
	return s.translator
}

// Manifest lists the sources the service loaded, in load order.
func (s *Service) Manifest() source.Manifest {
	return s.manifest
}

// LoadErrors lists the sources that could not be loaded, including under strict loading
// where no store is kept.
func (s *Service) LoadErrors() []*localization.LoadError {
	return s.loadErrors
}

// Err joins the option failures and source failures seen while starting up.
func (s *Service) Err() error {
	return errors.Join(append(append([]error{}, s.startupErrors...), s.loadErr)...)
}

// Validate is Err, additionally reporting ErrNoSources when nothing was discovered.
func (s *Service) Validate() error {
	err := s.Err()
	if len(s.manifest) == 0 {
		return errors.Join(ErrNoSources, err)
	}
	return err
}

// Lookup resolves key for the cultures requested in ctx.
func (s *Service) Lookup(ctx context.Context, key string) localization.LookupResult {
	return s.localizer.Lookup(ctx, key)
}

// LookupFormatted resolves key for the cultures requested in ctx and formats it with args.
func (s *Service) LookupFormatted(ctx context.Context, key string, args ...any) (localization.LookupResult, error) {
	return s.localizer.LookupFormatted(ctx, key, args...)
}

// Translate renders messageID through go-i18n for the cultures requested in ctx,
// returning messageID when no translator is available.
func (s *Service) Translate(ctx context.Context, messageID string) string {
	return s.TranslateWithMapAndCount(ctx, messageID, map[string]any{}, 1)
}

func (s *Service) TranslateWithMap(ctx context.Context, messageID string, variables map[string]any) string {
	return s.TranslateWithMapAndCount(ctx, messageID, variables, 1)
}

func (s *Service) TranslateWithMapAndCount(
	ctx context.Context,
	messageID string,
	variables map[string]any,
	count int,
) string {
	if s.translator == nil {
		return messageID
	}
	return s.translator.TranslateWithMapAndCount(ctx, ctx, messageID, variables, count)
}

// Close releases the buckets the service opened. It is safe to call more than once.
func (s *Service) Close(ctx context.Context) {
	s.closeOnce.Do(func() {
		s.bucketsMu.Lock()
		defer s.bucketsMu.Unlock()

		for _, b := range s.buckets {
			util.CloseAndLogOnError(ctx, b)
		}
		s.buckets = nil
	})
}

func (s *Service) addBucket(b *blob.Bucket) {
	s.bucketsMu.Lock()
	defer s.bucketsMu.Unlock()
	s.buckets = append(s.buckets, b)
}

// load discovers sources from configuration when no option supplied any, then builds
// the store and everything reading it.
func (s *Service) load(ctx context.Context) {
	log := s.Log(ctx)

	cfg, hasCfg := s.Config().(config.ConfigurationLocalization)
	if !s.sourcesSet && hasCfg {
		s.discover(ctx, cfg)
	}

	var buildOpts []localization.BuildOption
	var localizerOpts []localization.Option
	defaultCulture := ""
	if hasCfg {
		defaultCulture = cfg.GetDefaultCulture()
		buildOpts = append(buildOpts,
			localization.WithCaseInsensitiveKeys(cfg.KeysCaseInsensitive()),
			localization.WithKeyDelimiter(cfg.GetKeyDelimiter()),
			localization.WithStrictLoad(cfg.StrictLoad()),
		)
		localizerOpts = append(localizerOpts,
			localization.WithDefaultCulture(defaultCulture),
			localization.WithParentCultureFallback(cfg.ParentCultureFallback()),
		)
	}
	buildOpts = append(buildOpts, localization.WithBuildMetrics(s.metrics))
	buildOpts = append(buildOpts, s.buildOpts...)
	localizerOpts = append(localizerOpts, localization.WithMetrics(s.metrics))
	localizerOpts = append(localizerOpts, s.localizerOpts...)

	if poolCfg, ok := s.Config().(config.ConfigurationWorkerPool); ok {
		pool, err := workerpool.NewPool(ctx, poolCfg, append([]workerpool.Option{
			workerpool.WithPoolLogger(log),
		}, s.poolOptions...)...)
		if err != nil {
			log.WithError(err).Warn("could not create worker pool, parsing sources inline")
		} else {
			defer pool.Shutdown()
			buildOpts = append(buildOpts, localization.WithPool(pool))
		}
	}

	store, err := localization.Build(ctx, s.manifest, buildOpts...)
	s.loadErr = err
	s.loadErrors = localization.LoadErrorsOf(err)
	if err != nil {
		log.WithError(err).Error("some localization sources could not be loaded")
	}

	s.store = store
	s.localizer = localization.NewLocalizer(store, localizerOpts...)
	s.html = localization.NewHTMLLocalizer(s.localizer)

	s.translator, err = localization.NewTranslator(ctx, store, defaultCulture)
	if err != nil {
		log.WithError(err).WithField("culture", defaultCulture).
			Warn("default culture is not a language tag, translations are disabled")
	}

	log.WithField("cultures", s.localizer.Cultures()).
		WithField("sources", len(s.manifest)).
		Info("localization loaded")
}

// discover fills the manifest from configuration: an explicit manifest file first,
// then a bucket, then the resources directory.
func (s *Service) discover(ctx context.Context, cfg config.ConfigurationLocalization) {
	switch {
	case cfg.GetManifestPath() != "":
		WithManifestFile(cfg.GetManifestPath())(ctx, s)
	case cfg.GetBucketURL() != "":
		WithBucket(cfg.GetBucketURL(), cfg.GetEmbeddedPrefix(), cfg.GetResourceName())(ctx, s)
	default:
		WithDirectory(cfg.GetResourcesPath(), cfg.GetResourceName())(ctx, s)
	}
}
