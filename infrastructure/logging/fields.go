package logging

import (
	"time"

	"github.com/felixgeelhaar/bolt/v3"
)

// Field is a function that applies structured data to a log event.
type Field func(*bolt.Event) *bolt.Event

// Common field constructors for cache logging.

// Key adds a cache key field.
func Key(key string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("key", key)
	}
}

// Partition adds a partition field.
func Partition(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("partition", p)
	}
}

// Pattern adds an invalidation pattern field.
func Pattern(p string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("pattern", p)
	}
}

// Stale adds a stale field.
func Stale(stale bool) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Bool("stale", stale)
	}
}

// Matched adds a matched entry count field for invalidation sweeps.
func Matched(count int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("matched", count)
	}
}

// Evicted adds an evicted entry count field.
func Evicted(count int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("evicted", count)
	}
}

// Size adds a size field.
func Size(n int) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int("size", n)
	}
}

// RequestID adds a request ID field.
func RequestID(id string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("request_id", id)
	}
}

// Operation adds an operation field.
func Operation(op string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("operation", op)
	}
}

// Duration adds a duration field in milliseconds.
func Duration(d time.Duration) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Int64("duration_ms", d.Milliseconds())
	}
}

// ErrorField adds an error field.
func ErrorField(err error) Field {
	return func(e *bolt.Event) *bolt.Event {
		if err == nil {
			return e
		}
		return e.Err(err)
	}
}

// Component adds a component field for categorization.
func Component(name string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str("component", name)
	}
}

// Str adds a string field with custom key.
func Str(key, value string) Field {
	return func(e *bolt.Event) *bolt.Event {
		return e.Str(key, value)
	}
}
