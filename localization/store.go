package localization

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/pitabwire/util"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pitabwire/jsonlocale/localization/source"
	"github.com/pitabwire/jsonlocale/workerpool"
)

const DefaultKeyDelimiter = "."

// LoadError reports a source that could not be read or parsed.
type LoadError struct {
	Culture  string
	Location string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("could not load culture %q from %s: %v", e.Culture, e.Location, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// LoadErrorsOf collects the *LoadError values joined into err, such as the error Build
// returns. It also works when Build discarded the store under WithStrictLoad.
func LoadErrorsOf(err error) []*LoadError {
	switch e := err.(type) {
	case nil:
		return nil
	case *LoadError:
		return []*LoadError{e}
	case interface{ Unwrap() []error }:
		var out []*LoadError
		for _, inner := range e.Unwrap() {
			out = append(out, LoadErrorsOf(inner)...)
		}
		return out
	}

	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return []*LoadError{loadErr}
	}
	return nil
}

type entry struct {
	key   string
	value string
}

type cultureTable struct {
	name     string
	location string
	entries  map[string]entry
}

// Store holds the templates of every loaded culture.
// It is immutable once Build returns and safe for concurrent readers.
type Store struct {
	caseInsensitive bool
	delimiter       string
	cultures        map[string]*cultureTable
	loadErrors      []*LoadError
}

type buildOptions struct {
	caseInsensitive bool
	delimiter       string
	strict          bool
	pool            workerpool.WorkerPool
	metrics         *Metrics
	tracer          trace.Tracer
}

// BuildOption configures how a Store is built.
type BuildOption func(*buildOptions)

// WithCaseInsensitiveKeys folds keys and culture names so lookups ignore case.
func WithCaseInsensitiveKeys(insensitive bool) BuildOption {
	return func(o *buildOptions) {
		o.caseInsensitive = insensitive
	}
}

// WithKeyDelimiter sets the separator used when flattening nested objects.
func WithKeyDelimiter(delimiter string) BuildOption {
	return func(o *buildOptions) {
		if delimiter != "" {
			o.delimiter = delimiter
		}
	}
}

// WithStrictLoad makes any failing source abort the build.
func WithStrictLoad(strict bool) BuildOption {
	return func(o *buildOptions) {
		o.strict = strict
	}
}

// WithPool parses sources concurrently on pool.
func WithPool(pool workerpool.WorkerPool) BuildOption {
	return func(o *buildOptions) {
		o.pool = pool
	}
}

// WithTracerProvider traces the build and each source parse on tp instead of the global provider.
func WithTracerProvider(tp trace.TracerProvider) BuildOption {
	return func(o *buildOptions) {
		if tp != nil {
			o.tracer = tp.Tracer(meterName)
		}
	}
}

// WithBuildMetrics records loaded and failed sources.
func WithBuildMetrics(m *Metrics) BuildOption {
	return func(o *buildOptions) {
		o.metrics = m
	}
}

type parsed struct {
	values map[string]string
	err    error
}

// Build reads every source of manifest and indexes it by culture.
//
// Sources are parsed independently, on the configured pool when there is one, and then
// merged one by one in manifest order so a later source overrides keys of an earlier one.
// A failing source is skipped and reported as a *LoadError; the returned error joins all of them
// while the store stays usable. With WithStrictLoad the store is discarded instead.
func Build(ctx context.Context, manifest source.Manifest, opts ...BuildOption) (*Store, error) {
	o := &buildOptions{delimiter: DefaultKeyDelimiter, tracer: otel.Tracer(meterName)}
	for _, opt := range opts {
		opt(o)
	}

	ctx, span := o.tracer.Start(ctx, "localization.Build",
		trace.WithAttributes(attribute.Int("sources", len(manifest))))
	defer span.End()

	log := util.Log(ctx)

	results := make([]parsed, len(manifest))
	tasks := make([]func(), len(manifest))
	for i, src := range manifest {
		tasks[i] = func() {
			results[i] = parseSource(ctx, o.tracer, src, o.delimiter)
		}
	}
	workerpool.Run(ctx, o.pool, tasks...)

	s := &Store{
		caseInsensitive: o.caseInsensitive,
		delimiter:       o.delimiter,
		cultures:        make(map[string]*cultureTable),
	}

	for i, src := range manifest {
		res := results[i]
		if res.err != nil {
			loadErr := &LoadError{Culture: src.Culture(), Location: src.Location(), Err: res.err}
			s.loadErrors = append(s.loadErrors, loadErr)
			o.metrics.sourceFailed(ctx, src.Culture())

			log.WithError(res.err).
				WithField("culture", src.Culture()).
				WithField("location", src.Location()).
				Error("could not load translation source")
			continue
		}

		s.merge(src.Culture(), src.Location(), res.values)
		o.metrics.sourceLoaded(ctx, src.Culture())

		log.WithField("culture", src.Culture()).
			WithField("location", src.Location()).
			WithField("keys", len(res.values)).
			Info("cached translation source")
	}

	if len(s.loadErrors) == 0 {
		return s, nil
	}

	errs := make([]error, len(s.loadErrors))
	for i, le := range s.loadErrors {
		errs[i] = le
	}
	err := errors.Join(errs...)
	span.RecordError(err)
	span.SetStatus(codes.Error, "translation sources failed to load")

	if o.strict {
		return nil, err
	}
	return s, err
}

func parseSource(ctx context.Context, tracer trace.Tracer, src source.Source, delimiter string) parsed {
	ctx, span := tracer.Start(ctx, "localization.parseSource", trace.WithAttributes(
		cultureKey.String(src.Culture()),
		attribute.String("location", src.Location()),
	))
	defer span.End()

	res := readSource(ctx, src, delimiter)
	if res.err != nil {
		span.RecordError(res.err)
		span.SetStatus(codes.Error, "could not parse translation source")
	}
	return res
}

func readSource(ctx context.Context, src source.Source, delimiter string) parsed {
	if src.Culture() == "" {
		return parsed{err: source.ErrNoCulture}
	}

	rc, err := src.Open(ctx)
	if err != nil {
		return parsed{err: err}
	}
	defer util.CloseAndLogOnError(ctx, rc)

	values, err := Flatten(rc, delimiter)
	return parsed{values: values, err: err}
}

func (s *Store) fold(v string) string {
	if s.caseInsensitive {
		return strings.ToLower(v)
	}
	return v
}

func (s *Store) merge(culture, location string, values map[string]string) {
	ck := s.fold(culture)
	table, ok := s.cultures[ck]
	if !ok {
		table = &cultureTable{name: culture, entries: make(map[string]entry, len(values))}
		s.cultures[ck] = table
	}
	table.location = location

	// sorted so that keys colliding under case folding resolve the same way on every run
	for _, key := range slices.Sorted(maps.Keys(values)) {
		fk := s.fold(key)
		existing, found := table.entries[fk]
		if found {
			existing.value = values[key]
			table.entries[fk] = existing
			continue
		}
		table.entries[fk] = entry{key: key, value: values[key]}
	}
}

func (s *Store) table(culture string) *cultureTable {
	if s == nil {
		return nil
	}
	return s.cultures[s.fold(culture)]
}

// Get returns the template stored for key in culture.
func (s *Store) Get(culture, key string) (string, bool) {
	table := s.table(culture)
	if table == nil {
		return "", false
	}
	e, ok := table.entries[s.fold(key)]
	return e.value, ok
}

// HasCulture reports whether any source was merged for culture.
func (s *Store) HasCulture(culture string) bool {
	return s.table(culture) != nil
}

// Location is the last source merged into culture.
func (s *Store) Location(culture string) string {
	table := s.table(culture)
	if table == nil {
		return ""
	}
	return table.location
}

// Cultures lists loaded cultures, sorted, with the casing of their first source.
func (s *Store) Cultures() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.cultures))
	for _, t := range s.cultures {
		names = append(names, t.name)
	}
	slices.Sort(names)
	return names
}

// Len is the number of keys held for culture.
func (s *Store) Len(culture string) int {
	table := s.table(culture)
	if table == nil {
		return 0
	}
	return len(table.entries)
}

// Keys returns the keys of culture, sorted, with the casing they were first loaded with.
func (s *Store) Keys(culture string) []string {
	table := s.table(culture)
	if table == nil {
		return nil
	}
	keys := make([]string, 0, len(table.entries))
	for _, e := range table.entries {
		keys = append(keys, e.key)
	}
	slices.Sort(keys)
	return keys
}

// LoadErrors lists the sources skipped while building.
func (s *Store) LoadErrors() []*LoadError {
	if s == nil {
		return nil
	}
	return slices.Clone(s.loadErrors)
}

// CaseInsensitive reports whether keys were folded.
func (s *Store) CaseInsensitive() bool {
	return s != nil && s.caseInsensitive
}

// Delimiter is the separator nested keys were flattened with.
func (s *Store) Delimiter() string {
	if s == nil || s.delimiter == "" {
		return DefaultKeyDelimiter
	}
	return s.delimiter
}
