// Package memory provides the in-memory implementation of the query
// result cache.
package memory

import (
	"container/list"
	"context"
	"regexp"
	"sync"
	"time"

	"github.com/felixgeelhaar/bolt/v3"

	"github.com/felixgeelhaar/pagecache/domain/querycache"
	"github.com/felixgeelhaar/pagecache/infrastructure/logging"
	"github.com/felixgeelhaar/pagecache/infrastructure/telemetry"
)

// entry is the value stored in the LRU list elements.
// The key is kept here because eviction starts from list nodes.
type entry[T any] struct {
	key            string
	data           T
	storedAt       time.Time
	lastAccessedAt time.Time
	stale          bool
}

// QueryCache is a bounded, staleness-aware in-memory cache for
// paginated query results, implementing querycache.Cache.
//
// A map gives O(1) key lookup and a doubly-linked list maintains
// recency ordering, so eviction is O(1) per removed entry. The map and
// list are mutated together and must never be observed torn, so every
// public operation holds one mutex.
//
// Staleness is computed lazily at read time; no background process
// runs. Invalidation and age only ever mark entries stale, eviction is
// the only path that removes them.
type QueryCache[T any] struct {
	mu sync.Mutex

	items map[string]*list.Element
	lru   *list.List // Front = most recently used (MRU), Back = least recently used (LRU)

	maxSize        int
	staleTolerance time.Duration

	now     func() time.Time
	logger  *bolt.Logger
	metrics telemetry.Metrics
}

// options collects construction settings shared by all type instantiations.
type options struct {
	maxSize        int
	staleTolerance time.Duration
	now            func() time.Time
	logger         *bolt.Logger
	metrics        telemetry.Metrics
}

// Option configures the cache.
type Option func(*options)

// WithConfig applies capacity and tolerance from a domain config in one
// step, typically one produced by querycache.DefaultConfig and adjusted.
func WithConfig(cfg querycache.Config) Option {
	return func(o *options) {
		o.maxSize = cfg.MaxCacheSize
		o.staleTolerance = cfg.StaleTolerance
	}
}

// WithMaxSize sets the maximum number of entries.
func WithMaxSize(size int) Option {
	return func(o *options) {
		o.maxSize = size
	}
}

// WithStaleTolerance sets the age after which a read reports an entry stale.
func WithStaleTolerance(d time.Duration) Option {
	return func(o *options) {
		o.staleTolerance = d
	}
}

// WithLogger sets a logger for eviction and invalidation events.
// Without one the cache stays silent.
func WithLogger(logger *bolt.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics sets a metrics recorder for cache activity.
func WithMetrics(m telemetry.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithClock overrides the time source. Intended for tests that need to
// observe staleness transitions without sleeping.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates an in-memory query cache. Capacity and tolerance are
// fixed for the instance's lifetime; instances are independent and
// should be handed explicitly to the consumers that share them.
func New[T any](opts ...Option) *QueryCache[T] {
	cfg := querycache.DefaultConfig()
	o := options{
		maxSize:        cfg.MaxCacheSize,
		staleTolerance: cfg.StaleTolerance,
		now:            time.Now,
		metrics:        &telemetry.NoopMetricsProvider{},
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxSize <= 0 {
		o.maxSize = querycache.DefaultMaxCacheSize
	}

	return &QueryCache[T]{
		items:          make(map[string]*list.Element),
		lru:            list.New(),
		maxSize:        o.maxSize,
		staleTolerance: o.staleTolerance,
		now:            o.now,
		logger:         o.logger,
		metrics:        o.metrics,
	}
}

// Set stores data under the key built from params and partition.
//
// An existing key is overwritten in place: data and storedAt are
// refreshed, the stale mark is cleared, and the write counts as a use
// for LRU purposes. A new key is inserted at the MRU end; if the store
// then exceeds capacity the least recently used entries are removed
// until the size invariant holds again. Set never fails.
func (c *QueryCache[T]) Set(params querycache.Params, data T, partition string) {
	key := querycache.BuildKey(params, partition)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		e := el.Value.(*entry[T])
		e.data = data
		e.storedAt = now
		e.lastAccessedAt = now
		e.stale = false
		c.lru.MoveToFront(el)
		return
	}

	e := &entry[T]{
		key:            key,
		data:           data,
		storedAt:       now,
		lastAccessedAt: now,
	}
	c.items[key] = c.lru.PushFront(e)
	c.metrics.AddEntries(context.Background(), 1)

	c.evictLocked()
}

// Get retrieves a cached result. A miss returns the zero Result and
// false; that is the expected signal to fetch, not an error.
//
// On a hit staleness is recomputed from the entry's age, the access
// refreshes the LRU position, and the data is returned regardless of
// staleness. The caller decides whether a stale hit is usable.
func (c *QueryCache[T]) Get(params querycache.Params, partition string) (querycache.Result[T], bool) {
	key := querycache.BuildKey(params, partition)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.metrics.RecordMiss(context.Background(), partition)
		var zero querycache.Result[T]
		return zero, false
	}

	e := el.Value.(*entry[T])
	if !e.stale && now.Sub(e.storedAt) > c.staleTolerance {
		e.stale = true
	}
	e.lastAccessedAt = now
	c.lru.MoveToFront(el)

	if e.stale {
		c.metrics.RecordStaleHit(context.Background(), partition)
	} else {
		c.metrics.RecordHit(context.Background(), partition)
	}

	return querycache.Result[T]{Data: e.data, Stale: e.stale}, true
}

// Invalidate marks every entry whose key matches pattern as stale and
// returns the number of matched entries. Entries are kept so callers
// can still serve them while revalidating; LRU order is untouched.
// A pattern matching nothing returns 0 and changes nothing.
func (c *QueryCache[T]) Invalidate(pattern *regexp.Regexp) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := 0
	for key, el := range c.items {
		if pattern.MatchString(key) {
			el.Value.(*entry[T]).stale = true
			matched++
		}
	}

	if matched > 0 {
		c.metrics.RecordInvalidation(context.Background(), matched)
		if c.logger != nil {
			logging.NewEvent(c.logger.Debug()).
				Add(logging.Pattern(pattern.String())).
				Add(logging.Matched(matched)).
				Msg("invalidated cache entries")
		}
	}
	return matched
}

// Stats returns a snapshot of current occupancy.
func (c *QueryCache[T]) Stats() querycache.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return querycache.Stats{
		Size:    len(c.items),
		MaxSize: c.maxSize,
	}
}

// Keys returns keys in MRU -> LRU order. Diagnostics helper.
func (c *QueryCache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, c.lru.Len())
	for el := c.lru.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*entry[T]).key)
	}
	return out
}

// evictLocked removes entries from the LRU end until the size invariant
// holds. Candidate selection is purely by recency; a stale entry that
// is read often outlives a fresh one that is never read.
func (c *QueryCache[T]) evictLocked() {
	evicted := 0
	for len(c.items) > c.maxSize {
		el := c.lru.Back()
		if el == nil {
			break
		}
		e := el.Value.(*entry[T])
		delete(c.items, e.key)
		c.lru.Remove(el)
		evicted++

		if c.logger != nil {
			logging.NewEvent(c.logger.Debug()).
				Add(logging.Key(e.key)).
				Msg("evicted least recently used entry")
		}
	}

	if evicted > 0 {
		c.metrics.RecordEviction(context.Background(), evicted)
		c.metrics.AddEntries(context.Background(), -evicted)
		if c.logger != nil {
			logging.NewEvent(c.logger.Debug()).
				Add(logging.Evicted(evicted)).
				Add(logging.Size(len(c.items))).
				Msg("eviction sweep complete")
		}
	}
}

// Ensure QueryCache implements querycache.Cache.
var _ querycache.Cache[any] = (*QueryCache[any])(nil)
