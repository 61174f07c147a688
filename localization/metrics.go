package localization

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	meterName         = "github.com/pitabwire/jsonlocale/localization"
	unitDimensionless = "1"
)

var cultureKey = attribute.Key("culture")

// Metrics counts lookups and source loads. A nil *Metrics records nothing.
type Metrics struct {
	lookups       metric.Int64Counter
	misses        metric.Int64Counter
	sourcesLoaded metric.Int64Counter
	sourcesFailed metric.Int64Counter
}

// NewMetrics registers the localization counters on meter.
// A nil meter uses the global otel meter provider.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	counter := func(name, description string) (metric.Int64Counter, error) {
		return meter.Int64Counter(
			meterName+"/"+name,
			metric.WithDescription(description),
			metric.WithUnit(unitDimensionless),
		)
	}

	var m Metrics
	var err error

	m.lookups, err = counter("lookups", "Count of localized string lookups by culture.")
	if err != nil {
		return nil, err
	}
	m.misses, err = counter("lookup_misses", "Count of lookups that fell back to the key.")
	if err != nil {
		return nil, err
	}
	m.sourcesLoaded, err = counter("sources_loaded", "Count of translation sources merged into the store.")
	if err != nil {
		return nil, err
	}
	m.sourcesFailed, err = counter("sources_failed", "Count of translation sources skipped because they failed to load.")
	if err != nil {
		return nil, err
	}

	return &m, nil
}

func (m *Metrics) lookup(ctx context.Context, culture string, found bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(cultureKey.String(culture))
	m.lookups.Add(ctx, 1, attrs)
	if !found {
		m.misses.Add(ctx, 1, attrs)
	}
}

func (m *Metrics) sourceLoaded(ctx context.Context, culture string) {
	if m == nil {
		return
	}
	m.sourcesLoaded.Add(ctx, 1, metric.WithAttributes(cultureKey.String(culture)))
}

func (m *Metrics) sourceFailed(ctx context.Context, culture string) {
	if m == nil {
		return
	}
	m.sourcesFailed.Add(ctx, 1, metric.WithAttributes(cultureKey.String(culture)))
}
