// Package readthrough provides stale-while-revalidate orchestration on
// top of a query cache: serve fresh hits directly, serve stale hits
// while refreshing in the background, and fetch synchronously on a
// miss. Retry and backoff stay with the fetcher.
package readthrough

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/felixgeelhaar/bolt/v3"
	"github.com/google/uuid"

	"github.com/felixgeelhaar/pagecache/domain/querycache"
	"github.com/felixgeelhaar/pagecache/infrastructure/logging"
	"github.com/felixgeelhaar/pagecache/infrastructure/telemetry"
)

// ErrNilFetcher is returned when Get is called without a fetch function.
var ErrNilFetcher = errors.New("nil fetch function")

// Fetcher loads a result from its source of truth, typically the
// network. It is supplied per call so each query site keeps its own
// fetch logic.
type Fetcher[T any] func(ctx context.Context) (T, error)

// DefaultRefreshTimeout bounds a background revalidation fetch.
const DefaultRefreshTimeout = 30 * time.Second

// Client wraps a cache with read-through behavior. The cache instance
// is injected; the client never creates ambient shared state.
type Client[T any] struct {
	cache querycache.Cache[T]

	logger         *bolt.Logger
	metrics        telemetry.Metrics
	refreshTimeout time.Duration

	wg sync.WaitGroup
}

type options struct {
	logger         *bolt.Logger
	metrics        telemetry.Metrics
	refreshTimeout time.Duration
}

// Option configures the client.
type Option func(*options)

// WithLogger sets a logger for fetch and revalidation events.
func WithLogger(logger *bolt.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics recorder for fetch durations.
func WithMetrics(m telemetry.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRefreshTimeout bounds background revalidation fetches.
func WithRefreshTimeout(d time.Duration) Option {
	return func(o *options) {
		o.refreshTimeout = d
	}
}

// New creates a read-through client over the given cache.
func New[T any](cache querycache.Cache[T], opts ...Option) *Client[T] {
	o := options{
		metrics:        &telemetry.NoopMetricsProvider{},
		refreshTimeout: DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return &Client[T]{
		cache:          cache,
		logger:         o.logger,
		metrics:        o.metrics,
		refreshTimeout: o.refreshTimeout,
	}
}

// Get returns the result for params, consulting the cache first.
//
// A fresh hit is returned as-is. A stale hit is returned immediately
// and a background revalidation refreshes the entry; a failed refresh
// is logged, never surfaced. A miss fetches synchronously, stores the
// result, and returns it; a failed fetch is returned wrapped and
// nothing is cached.
func (c *Client[T]) Get(ctx context.Context, params querycache.Params, partition string, fetch Fetcher[T]) (T, error) {
	var zero T
	if fetch == nil {
		return zero, ErrNilFetcher
	}

	res, ok := c.cache.Get(params, partition)
	if ok && !res.Stale {
		return res.Data, nil
	}
	if ok {
		if c.logger != nil {
			logging.NewEvent(c.logger.Debug()).
				Add(logging.Key(querycache.BuildKey(params, partition))).
				Add(logging.Stale(true)).
				Msg("serving stale entry, revalidating in background")
		}
		c.revalidate(params, partition, fetch)
		return res.Data, nil
	}

	requestID := uuid.NewString()
	start := time.Now()
	data, err := fetch(ctx)
	c.metrics.RecordFetchDuration(ctx, time.Since(start), err == nil)
	if err != nil {
		if c.logger != nil {
			logging.NewEvent(c.logger.Warn()).
				Add(logging.RequestID(requestID)).
				Add(logging.Partition(partition)).
				Add(logging.ErrorField(err)).
				Msg("fetch on cache miss failed")
		}
		return zero, fmt.Errorf("fetch %s: %w", querycache.BuildKey(params, partition), err)
	}

	c.cache.Set(params, data, partition)
	if c.logger != nil {
		logging.NewEvent(c.logger.Debug()).
			Add(logging.RequestID(requestID)).
			Add(logging.Key(querycache.BuildKey(params, partition))).
			Add(logging.Duration(time.Since(start))).
			Msg("fetched and cached on miss")
	}
	return data, nil
}

// revalidate refreshes a stale entry in the background. The goroutine
// is tracked so Wait can drain in-flight refreshes on shutdown.
func (c *Client[T]) revalidate(params querycache.Params, partition string, fetch Fetcher[T]) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), c.refreshTimeout)
		defer cancel()

		requestID := uuid.NewString()
		start := time.Now()
		data, err := fetch(ctx)
		c.metrics.RecordFetchDuration(ctx, time.Since(start), err == nil)
		if err != nil {
			// The stale value has already been served; keep it.
			if c.logger != nil {
				logging.NewEvent(c.logger.Warn()).
					Add(logging.RequestID(requestID)).
					Add(logging.Key(querycache.BuildKey(params, partition))).
					Add(logging.ErrorField(err)).
					Msg("background revalidation failed")
			}
			return
		}

		c.cache.Set(params, data, partition)
		if c.logger != nil {
			logging.NewEvent(c.logger.Debug()).
				Add(logging.RequestID(requestID)).
				Add(logging.Key(querycache.BuildKey(params, partition))).
				Add(logging.Duration(time.Since(start))).
				Msg("revalidated stale entry")
		}
	}()
}

// InvalidatePartition marks every entry in the given partition stale.
// The typical call site is a mutation handler whose write may have
// outdated previously fetched pages. Returns the matched entry count.
func (c *Client[T]) InvalidatePartition(partition string) int {
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(querycache.PartitionPrefix(partition)))
	return c.cache.Invalidate(pattern)
}

// Wait blocks until all in-flight background revalidations finish.
func (c *Client[T]) Wait() {
	c.wg.Wait()
}
