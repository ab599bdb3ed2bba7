// Package querycache provides the domain contract for paginated query
// result caching.
package querycache

import (
	"regexp"
	"time"
)

// Defaults for cache configuration.
const (
	// DefaultMaxCacheSize is the default maximum number of entries.
	DefaultMaxCacheSize = 100

	// DefaultStaleTolerance is the default age after which an entry is
	// reported stale on read.
	DefaultStaleTolerance = 5 * time.Minute
)

// Cache defines the interface for query result caching.
// Implementations decide how entries are stored and evicted; staleness
// never removes an entry, it only marks it.
type Cache[T any] interface {
	// Set stores a result under the key built from params and partition.
	// An existing entry is overwritten in place and becomes fresh again.
	// Set never fails; eviction keeps the store within capacity.
	Set(params Params, data T, partition string)

	// Get retrieves a cached result. The second return value reports
	// whether the key was present; a miss is the signal to fetch.
	// Stale entries are still returned, with Result.Stale set.
	Get(params Params, partition string) (Result[T], bool)

	// Invalidate marks every entry whose key matches pattern as stale
	// and returns the number of matched entries. Entries are not removed.
	Invalidate(pattern *regexp.Regexp) int

	// Stats returns a snapshot of current occupancy.
	Stats() Stats
}

// Result is the value returned by a cache hit.
type Result[T any] struct {
	// Data is the cached payload. The cache never inspects it.
	Data T

	// Stale reports whether the entry has aged past the configured
	// tolerance or was explicitly invalidated. The caller decides
	// whether a stale hit is usable.
	Stale bool
}

// Stats provides cache occupancy statistics.
type Stats struct {
	// Size is the current number of entries.
	Size int
	// MaxSize is the maximum number of entries.
	MaxSize int
}

// Config configures a cache instance. Both fields are fixed for the
// lifetime of the instance.
type Config struct {
	// MaxCacheSize is the maximum number of live entries.
	MaxCacheSize int

	// StaleTolerance is the maximum entry age before a read reports
	// the entry as stale.
	StaleTolerance time.Duration
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		MaxCacheSize:   DefaultMaxCacheSize,
		StaleTolerance: DefaultStaleTolerance,
	}
}
