package localization

import (
	"context"
	"html/template"
	"iter"
	"strings"

	"github.com/pitabwire/util"
	"golang.org/x/text/language"
)

// LookupResult is the outcome of resolving a key. When ResourceNotFound is set,
// Value holds the key itself (formatted, for LookupFormatted).
type LookupResult struct {
	Name             string
	Value            string
	ResourceNotFound bool
	SearchedLocation string
}

func (r LookupResult) String() string {
	return r.Value
}

// Localizer resolves keys against a Store for the culture carried by a context.
// It holds no mutable state and can be shared across goroutines.
type Localizer struct {
	store          *Store
	defaultCulture string
	parentFallback bool
	metrics        *Metrics
}

// Option configures a Localizer.
type Option func(*Localizer)

// WithDefaultCulture is tried after every requested culture and also used when the context requests none.
func WithDefaultCulture(culture string) Option {
	return func(l *Localizer) {
		l.defaultCulture = strings.TrimSpace(culture)
	}
}

// WithParentCultureFallback also tries the parents of a requested culture, it-IT then it.
func WithParentCultureFallback(enabled bool) Option {
	return func(l *Localizer) {
		l.parentFallback = enabled
	}
}

// WithMetrics records every lookup on m.
func WithMetrics(m *Metrics) Option {
	return func(l *Localizer) {
		l.metrics = m
	}
}

// NewLocalizer wraps store. A nil store behaves as an empty one.
func NewLocalizer(store *Store, opts ...Option) *Localizer {
	if store == nil {
		store = &Store{cultures: map[string]*cultureTable{}}
	}

	l := &Localizer{store: store}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Store returns the underlying store.
func (l *Localizer) Store() *Store {
	return l.store
}

// Lookup resolves key for the cultures requested in ctx.
// A missing culture or key is not an error: the result carries the key and ResourceNotFound.
func (l *Localizer) Lookup(ctx context.Context, key string) LookupResult {
	res, _ := l.resolve(ctx, FromContext(ctx), key)
	return res
}

// LookupIn resolves key for an explicit culture.
func (l *Localizer) LookupIn(ctx context.Context, culture string, key string) LookupResult {
	res, _ := l.resolve(ctx, []string{culture}, key)
	return res
}

// LookupFormatted resolves key for the cultures in ctx and formats the template, or the key
// when nothing was found, with args. On a *FormatError the returned result still carries
// the unformatted template.
func (l *Localizer) LookupFormatted(ctx context.Context, key string, args ...any) (LookupResult, error) {
	return l.formatted(ctx, FromContext(ctx), key, args, false)
}

// LookupFormattedIn is LookupFormatted for an explicit culture.
func (l *Localizer) LookupFormattedIn(ctx context.Context, culture string, key string, args ...any) (LookupResult, error) {
	return l.formatted(ctx, []string{culture}, key, args, false)
}

// formatted resolves and formats key. escapeMiss HTML-escapes a key that fell back before it is formatted.
func (l *Localizer) formatted(
	ctx context.Context,
	cultures []string,
	key string,
	args []any,
	escapeMiss bool,
) (LookupResult, error) {
	res, culture := l.resolve(ctx, cultures, key)
	if escapeMiss && res.ResourceNotFound {
		res.Value = template.HTMLEscapeString(res.Value)
	}

	tag, err := language.Parse(culture)
	if err != nil {
		tag = language.Und
	}

	value, err := Format(tag, res.Value, args...)
	if err != nil {
		util.Log(ctx).WithError(err).
			WithField("key", key).
			WithField("culture", culture).
			Warn("could not format localized string")
		return res, err
	}

	res.Value = value
	return res, nil
}

// GetAllForCulture yields every key of culture in key order. The sequence can be ranged over
// any number of times; an unknown culture yields nothing.
func (l *Localizer) GetAllForCulture(culture string) iter.Seq[LookupResult] {
	return func(yield func(LookupResult) bool) {
		table := l.store.table(culture)
		if table == nil {
			return
		}

		for _, key := range l.store.Keys(culture) {
			e := table.entries[l.store.fold(key)]
			if !yield(LookupResult{Name: e.key, Value: e.value, SearchedLocation: table.location}) {
				return
			}
		}
	}
}

// GetAll is GetAllForCulture for the first culture requested in ctx.
func (l *Localizer) GetAll(ctx context.Context) iter.Seq[LookupResult] {
	return l.GetAllForCulture(l.primaryCulture(FromContext(ctx)))
}

// Cultures lists the loaded cultures.
func (l *Localizer) Cultures() []string {
	return l.store.Cultures()
}

// resolve returns the lookup result and the culture it is reported against.
func (l *Localizer) resolve(ctx context.Context, requested []string, key string) (LookupResult, string) {
	primary := l.primaryCulture(requested)

	searched := ""
	for _, culture := range l.candidates(requested) {
		table := l.store.table(culture)
		if table == nil {
			continue
		}
		if searched == "" {
			searched = table.location
		}

		e, ok := table.entries[l.store.fold(key)]
		if ok {
			l.metrics.lookup(ctx, primary, true)
			return LookupResult{Name: key, Value: e.value, SearchedLocation: table.location}, primary
		}
	}

	l.metrics.lookup(ctx, primary, false)
	util.Log(ctx).WithField("key", key).
		WithField("culture", primary).
		Warn("unable to find key in culture")

	return LookupResult{Name: key, Value: key, ResourceNotFound: true, SearchedLocation: searched}, primary
}

func (l *Localizer) primaryCulture(requested []string) string {
	for _, c := range requested {
		c = strings.TrimSpace(c)
		if c != "" {
			return c
		}
	}
	return l.defaultCulture
}

// candidates lists the cultures to search, most specific first, without repeats.
func (l *Localizer) candidates(requested []string) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(c string) {
		if c == "" {
			return
		}
		k := l.store.fold(c)
		if _, ok := seen[k]; ok {
			return
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}

	for _, c := range requested {
		c = strings.TrimSpace(c)
		add(c)

		if !l.parentFallback || c == "" {
			continue
		}

		tag, err := language.Parse(c)
		if err != nil {
			continue
		}
		for parent := tag.Parent(); parent != language.Und; parent = parent.Parent() {
			add(parent.String())
		}
	}

	add(l.defaultCulture)
	return out
}
