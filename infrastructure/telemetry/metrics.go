// Package telemetry provides observability infrastructure including
// OpenTelemetry metrics support for the pagecache store.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsProvider provides access to metrics instruments.
type MetricsProvider struct {
	meter metric.Meter

	// Counters
	hits          metric.Int64Counter
	misses        metric.Int64Counter
	staleHits     metric.Int64Counter
	evictions     metric.Int64Counter
	invalidations metric.Int64Counter

	// Histograms
	fetchDuration metric.Float64Histogram

	// Gauges (using UpDownCounter for OpenTelemetry)
	entries metric.Int64UpDownCounter

	initOnce sync.Once
	initErr  error
}

// MetricsConfig configures the metrics provider.
type MetricsConfig struct {
	// MeterName is the name of the meter (default: "github.com/felixgeelhaar/pagecache").
	MeterName string
	// MeterVersion is the version of the meter.
	MeterVersion string
	// Attributes are default attributes to attach to all metrics.
	Attributes []attribute.KeyValue
}

// DefaultMetricsConfig returns a default metrics configuration.
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MeterName:    "github.com/felixgeelhaar/pagecache",
		MeterVersion: "1.0.0",
	}
}

// NewMetricsProvider creates a new metrics provider.
func NewMetricsProvider(config MetricsConfig) *MetricsProvider {
	if config.MeterName == "" {
		config = DefaultMetricsConfig()
	}

	provider := otel.GetMeterProvider()
	meter := provider.Meter(
		config.MeterName,
		metric.WithInstrumentationVersion(config.MeterVersion),
	)

	mp := &MetricsProvider{
		meter: meter,
	}

	mp.initOnce.Do(func() {
		mp.initErr = mp.initInstruments()
	})

	return mp
}

// initInstruments initializes all metric instruments.
func (mp *MetricsProvider) initInstruments() error {
	var err error

	mp.hits, err = mp.meter.Int64Counter(
		"pagecache.hits",
		metric.WithDescription("Number of cache hits"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.misses, err = mp.meter.Int64Counter(
		"pagecache.misses",
		metric.WithDescription("Number of cache misses"),
		metric.WithUnit("{miss}"),
	)
	if err != nil {
		return err
	}

	mp.staleHits, err = mp.meter.Int64Counter(
		"pagecache.stale_hits",
		metric.WithDescription("Number of hits served from stale entries"),
		metric.WithUnit("{hit}"),
	)
	if err != nil {
		return err
	}

	mp.evictions, err = mp.meter.Int64Counter(
		"pagecache.evictions",
		metric.WithDescription("Number of entries removed by the LRU policy"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	mp.invalidations, err = mp.meter.Int64Counter(
		"pagecache.invalidations",
		metric.WithDescription("Number of entries marked stale by invalidation"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	mp.fetchDuration, err = mp.meter.Float64Histogram(
		"pagecache.fetch.duration",
		metric.WithDescription("Duration of fetches issued on cache miss or revalidation"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	mp.entries, err = mp.meter.Int64UpDownCounter(
		"pagecache.entries",
		metric.WithDescription("Number of live cache entries"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Error returns any initialization error.
func (mp *MetricsProvider) Error() error {
	return mp.initErr
}

// RecordHit records a fresh cache hit.
func (mp *MetricsProvider) RecordHit(ctx context.Context, partition string) {
	mp.hits.Add(ctx, 1, metric.WithAttributes(partitionAttrs(partition)...))
}

// RecordMiss records a cache miss.
func (mp *MetricsProvider) RecordMiss(ctx context.Context, partition string) {
	mp.misses.Add(ctx, 1, metric.WithAttributes(partitionAttrs(partition)...))
}

// RecordStaleHit records a hit served from a stale entry.
func (mp *MetricsProvider) RecordStaleHit(ctx context.Context, partition string) {
	mp.staleHits.Add(ctx, 1, metric.WithAttributes(partitionAttrs(partition)...))
}

// RecordEviction records entries removed by the LRU policy.
func (mp *MetricsProvider) RecordEviction(ctx context.Context, count int) {
	mp.evictions.Add(ctx, int64(count))
}

// RecordInvalidation records entries marked stale by an invalidation sweep.
func (mp *MetricsProvider) RecordInvalidation(ctx context.Context, matched int) {
	mp.invalidations.Add(ctx, int64(matched))
}

// RecordFetchDuration records the duration of a fetch.
func (mp *MetricsProvider) RecordFetchDuration(ctx context.Context, duration time.Duration, success bool) {
	mp.fetchDuration.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// AddEntries adjusts the live entry gauge by delta.
func (mp *MetricsProvider) AddEntries(ctx context.Context, delta int) {
	mp.entries.Add(ctx, int64(delta))
}

func partitionAttrs(partition string) []attribute.KeyValue {
	if partition == "" {
		return nil
	}
	return []attribute.KeyValue{attribute.String("partition", partition)}
}

// NoopMetricsProvider is a no-op metrics provider for testing or when metrics are disabled.
type NoopMetricsProvider struct{}

// RecordHit is a no-op.
func (n *NoopMetricsProvider) RecordHit(ctx context.Context, partition string) {}

// RecordMiss is a no-op.
func (n *NoopMetricsProvider) RecordMiss(ctx context.Context, partition string) {}

// RecordStaleHit is a no-op.
func (n *NoopMetricsProvider) RecordStaleHit(ctx context.Context, partition string) {}

// RecordEviction is a no-op.
func (n *NoopMetricsProvider) RecordEviction(ctx context.Context, count int) {}

// RecordInvalidation is a no-op.
func (n *NoopMetricsProvider) RecordInvalidation(ctx context.Context, matched int) {}

// RecordFetchDuration is a no-op.
func (n *NoopMetricsProvider) RecordFetchDuration(ctx context.Context, duration time.Duration, success bool) {
}

// AddEntries is a no-op.
func (n *NoopMetricsProvider) AddEntries(ctx context.Context, delta int) {}

// Metrics defines the interface for metrics recording.
type Metrics interface {
	RecordHit(ctx context.Context, partition string)
	RecordMiss(ctx context.Context, partition string)
	RecordStaleHit(ctx context.Context, partition string)
	RecordEviction(ctx context.Context, count int)
	RecordInvalidation(ctx context.Context, matched int)
	RecordFetchDuration(ctx context.Context, duration time.Duration, success bool)
	AddEntries(ctx context.Context, delta int)
}

// Ensure implementations satisfy the interface.
var (
	_ Metrics = (*MetricsProvider)(nil)
	_ Metrics = (*NoopMetricsProvider)(nil)
)
