package querycache

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Params is a flat set of named query parameters (page number, page
// size, filter values). Values are limited by contract to strings,
// booleans, integer and float kinds, or slices of these. Nested maps,
// structs, and functions violate the contract: BuildKey falls back to
// fmt formatting for them, and the resulting key is unspecified.
type Params map[string]any

// keyEscaper percent-encodes the characters that are structural in a
// serialized key, so parameter names, values, and partition labels can
// never be mistaken for the delimiters around them. Without it,
// distinct inputs such as {"a": "1&b=2"} and {"a": "1", "b": "2"}
// would serialize to the same string.
var keyEscaper = strings.NewReplacer(
	"%", "%25",
	"&", "%26",
	"=", "%3D",
	",", "%2C",
	"-", "%2D",
)

// PartitionPrefix returns the key prefix for a partition label, with
// delimiter characters escaped exactly as BuildKey escapes them.
// Collaborators that invalidate a whole partition match keys against
// this prefix.
func PartitionPrefix(partition string) string {
	return keyEscaper.Replace(partition) + "-"
}

// BuildKey serializes params into a canonical cache key. Keys are
// sorted lexicographically before serialization, so two logically
// identical parameter sets yield the same string regardless of
// insertion order. A non-empty partition prefixes the key with
// "<partition>-", letting independent logical caches share one store
// without collisions. Delimiter characters inside names, values, and
// the partition label are escaped, so distinct inputs never collide.
// BuildKey has no side effects and never fails.
func BuildKey(params Params, partition string) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	if partition != "" {
		b.WriteString(PartitionPrefix(partition))
	}
	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(keyEscaper.Replace(name))
		b.WriteByte('=')
		b.WriteString(formatValue(params[name]))
	}
	return b.String()
}

// formatValue renders a single parameter value deterministically.
// Floats use the shortest exact representation so equal values always
// produce equal text; slice elements are escaped individually and
// joined with commas, which keeps a slice distinct from a string that
// happens to contain commas.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return keyEscaper.Replace(val)
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint:
		return strconv.FormatUint(uint64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float32:
		return strconv.FormatFloat(float64(val), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case []string:
		parts := make([]string, len(val))
		for i, s := range val {
			parts[i] = keyEscaper.Replace(s)
		}
		return strings.Join(parts, ",")
	case []int:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, ",")
	case []any:
		parts := make([]string, len(val))
		for i, e := range val {
			parts[i] = formatValue(e)
		}
		return strings.Join(parts, ",")
	default:
		// Contract violation (nested object, function, ...).
		// Stability over perfection: format rather than panic.
		return keyEscaper.Replace(fmt.Sprintf("%v", val))
	}
}
