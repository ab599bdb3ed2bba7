package cli

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/pagecache/domain/querycache"
	"github.com/felixgeelhaar/pagecache/infrastructure/storage/memory"
)

// Workload is a scripted sequence of cache operations, loaded from
// YAML and replayed against a fresh store instance.
type Workload struct {
	// MaxSize overrides the store capacity (0 keeps the default).
	MaxSize int `yaml:"maxSize"`

	// StaleTolerance overrides the staleness tolerance, as a Go
	// duration string ("100ms", "5m"). Empty keeps the default.
	StaleTolerance string `yaml:"staleTolerance"`

	// Ops are executed in order.
	Ops []WorkloadOp `yaml:"ops"`
}

// WorkloadOp is a single step. Op selects the operation; the remaining
// fields apply depending on it.
type WorkloadOp struct {
	// Op is one of set, get, invalidate, sleep, stats.
	Op string `yaml:"op"`

	// Partition namespaces set/get keys.
	Partition string `yaml:"partition"`

	// Params holds the query parameters for set/get.
	Params map[string]any `yaml:"params"`

	// Data is the payload stored by set.
	Data string `yaml:"data"`

	// Pattern is the invalidation regular expression.
	Pattern string `yaml:"pattern"`

	// Duration is how long sleep pauses, as a Go duration string.
	Duration string `yaml:"duration"`
}

// LoadWorkload reads and validates a workload file.
func LoadWorkload(path string) (*Workload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload: %w", err)
	}

	var w Workload
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("parse workload: %w", err)
	}
	if err := w.validate(); err != nil {
		return nil, fmt.Errorf("workload %s: %w", path, err)
	}
	return &w, nil
}

func (w *Workload) validate() error {
	if len(w.Ops) == 0 {
		return fmt.Errorf("no ops")
	}
	if w.StaleTolerance != "" {
		if _, err := time.ParseDuration(w.StaleTolerance); err != nil {
			return fmt.Errorf("staleTolerance: %w", err)
		}
	}
	for i, op := range w.Ops {
		switch op.Op {
		case "set":
			if len(op.Params) == 0 {
				return fmt.Errorf("op %d: set needs params", i)
			}
		case "get":
			if len(op.Params) == 0 {
				return fmt.Errorf("op %d: get needs params", i)
			}
		case "invalidate":
			if _, err := regexp.Compile(op.Pattern); err != nil {
				return fmt.Errorf("op %d: pattern: %w", i, err)
			}
		case "sleep":
			if _, err := time.ParseDuration(op.Duration); err != nil {
				return fmt.Errorf("op %d: duration: %w", i, err)
			}
		case "stats":
		default:
			return fmt.Errorf("op %d: unknown op %q", i, op.Op)
		}
	}
	return nil
}

// config resolves the workload overrides into a store config, keeping
// the defaults for anything not set.
func (w *Workload) config() querycache.Config {
	cfg := querycache.DefaultConfig()
	if w.MaxSize > 0 {
		cfg.MaxCacheSize = w.MaxSize
	}
	if w.StaleTolerance != "" {
		d, _ := time.ParseDuration(w.StaleTolerance) // validated in LoadWorkload
		cfg.StaleTolerance = d
	}
	return cfg
}

// newStore builds the store the workload runs against.
func (w *Workload) newStore(opts ...memory.Option) *memory.QueryCache[string] {
	return memory.New[string](append([]memory.Option{memory.WithConfig(w.config())}, opts...)...)
}

// Run replays the workload against a fresh store and reports each
// step's outcome to out.
func (w *Workload) Run(out io.Writer, opts ...memory.Option) error {
	store := w.newStore(opts...)

	for i, op := range w.Ops {
		switch op.Op {
		case "set":
			store.Set(querycache.Params(op.Params), op.Data, op.Partition)
			fmt.Fprintf(out, "%3d SET  %s\n", i, querycache.BuildKey(querycache.Params(op.Params), op.Partition))

		case "get":
			key := querycache.BuildKey(querycache.Params(op.Params), op.Partition)
			res, ok := store.Get(querycache.Params(op.Params), op.Partition)
			if !ok {
				fmt.Fprintf(out, "%3d GET  %s -> miss\n", i, key)
				break
			}
			fmt.Fprintf(out, "%3d GET  %s -> %q (stale=%t)\n", i, key, res.Data, res.Stale)

		case "invalidate":
			n := store.Invalidate(regexp.MustCompile(op.Pattern))
			fmt.Fprintf(out, "%3d INV  %s -> %d matched\n", i, op.Pattern, n)

		case "sleep":
			d, _ := time.ParseDuration(op.Duration)
			time.Sleep(d)
			fmt.Fprintf(out, "%3d SLEEP %s\n", i, d)

		case "stats":
			st := store.Stats()
			fmt.Fprintf(out, "%3d STATS size=%d max=%d keys(MRU->LRU)=%v\n", i, st.Size, st.MaxSize, store.Keys())
		}
	}

	st := store.Stats()
	fmt.Fprintf(out, "done: size=%d max=%d\n", st.Size, st.MaxSize)
	return nil
}
