// Package observe holds the OpenTelemetry metric instruments of the route
// service and the Prometheus bridge that exposes them on /metrics.
//
// Tests should build their own Metrics with NewMetrics and a ManualReader
// instead of touching the global provider.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/wakana-code/station-navi-app/internal/models"
)

const meterName = "github.com/wakana-code/station-navi-app"

// Metrics holds all metric instruments for the application.
type Metrics struct {
	// SamplesIngested counts heading samples by result. Use with attribute:
	//   attribute.String("result", "accepted"|"rejected")
	SamplesIngested metric.Int64Counter

	// NarrationEvents counts emitted narration events by kind.
	NarrationEvents metric.Int64Counter

	// ActiveRecordings is 1 while a recording session is in progress.
	ActiveRecordings metric.Int64UpDownCounter

	// RoutesPublished counts route records created, by source.
	RoutesPublished metric.Int64Counter

	// SurveysSubmitted counts accepted survey responses.
	SurveysSubmitted metric.Int64Counter

	// SearchDuration tracks ranked search latency.
	SearchDuration metric.Float64Histogram

	// SearchResults tracks how many routes a search returned.
	SearchResults metric.Int64Histogram

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("route", ...), attribute.Int("status", ...)
	HTTPRequestDuration metric.Float64Histogram
}

var latencyBuckets = []float64{
	0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates all instruments from mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.SamplesIngested, err = m.Int64Counter("stationnavi.samples.ingested",
		metric.WithDescription("Heading samples fed to recording sessions by result."),
	); err != nil {
		return nil, err
	}
	if met.NarrationEvents, err = m.Int64Counter("stationnavi.narration.events",
		metric.WithDescription("Narration events emitted by kind."),
	); err != nil {
		return nil, err
	}
	if met.ActiveRecordings, err = m.Int64UpDownCounter("stationnavi.active_recordings",
		metric.WithDescription("Number of recording sessions in progress."),
	); err != nil {
		return nil, err
	}
	if met.RoutesPublished, err = m.Int64Counter("stationnavi.routes.published",
		metric.WithDescription("Route records created by source."),
	); err != nil {
		return nil, err
	}
	if met.SurveysSubmitted, err = m.Int64Counter("stationnavi.surveys.submitted",
		metric.WithDescription("Survey responses accepted."),
	); err != nil {
		return nil, err
	}
	if met.SearchDuration, err = m.Float64Histogram("stationnavi.search.duration",
		metric.WithDescription("Latency of ranked route search."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SearchResults, err = m.Int64Histogram("stationnavi.search.results",
		metric.WithDescription("Number of routes returned by a search."),
		metric.WithExplicitBucketBoundaries(0, 1, 5, 10, 25, 50, 100),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("stationnavi.http.request.duration",
		metric.WithDescription("HTTP request latency by method, route and status."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level Metrics built from the global
// meter provider on first use. Call InitProvider before the first call so
// the instruments report to Prometheus.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordSamples adds accepted and rejected sample counts.
func (m *Metrics) RecordSamples(ctx context.Context, accepted, rejected int) {
	if accepted > 0 {
		m.SamplesIngested.Add(ctx, int64(accepted), metric.WithAttributes(attribute.String("result", "accepted")))
	}
	if rejected > 0 {
		m.SamplesIngested.Add(ctx, int64(rejected), metric.WithAttributes(attribute.String("result", "rejected")))
	}
}

// RecordNarrationEvent counts one emitted event.
func (m *Metrics) RecordNarrationEvent(ctx context.Context, kind models.EventKind) {
	m.NarrationEvents.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(kind))))
}

// RecordRoutePublished counts one created route. source is "recording" or
// "upload".
func (m *Metrics) RecordRoutePublished(ctx context.Context, source string) {
	m.RoutesPublished.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
}
