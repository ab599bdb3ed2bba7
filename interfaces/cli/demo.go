package cli

import (
	"fmt"
	"regexp"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/pagecache/domain/querycache"
	"github.com/felixgeelhaar/pagecache/infrastructure/logging"
	"github.com/felixgeelhaar/pagecache/infrastructure/storage/memory"
)

// newDemoCmd creates the demo command, a scripted walk through the
// cache's behavior: LRU eviction, staleness, and invalidation.
func (a *App) newDemoCmd() *cobra.Command {
	var (
		maxSize        int
		staleTolerance time.Duration
		logLevel       string
		logFormat      string
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a scripted demonstration of the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(logging.Config{Level: logLevel, Format: logFormat})
			logging.Debug().
				Add(logging.Component("cli")).
				Add(logging.Operation("demo")).
				Add(logging.Size(maxSize)).
				Msg("starting demo")

			store := memory.New[string](
				memory.WithMaxSize(maxSize),
				memory.WithStaleTolerance(staleTolerance),
				memory.WithLogger(logging.Get()),
			)

			out := a.stdout
			fmt.Fprintf(out, "store: maxSize=%d staleTolerance=%s\n\n", maxSize, staleTolerance)

			// LRU eviction: fill to capacity, touch the oldest entry,
			// then overflow and watch the untouched one go.
			fmt.Fprintln(out, "-- LRU eviction --")
			for page := 1; page <= maxSize; page++ {
				store.Set(querycache.Params{"page": page}, fmt.Sprintf("results page %d", page), "gallery")
			}
			store.Get(querycache.Params{"page": 1}, "gallery")
			store.Set(querycache.Params{"page": maxSize + 1}, "overflow page", "gallery")

			if _, ok := store.Get(querycache.Params{"page": 2}, "gallery"); !ok {
				fmt.Fprintln(out, "page 2 evicted (least recently used); page 1 survived its read")
			}
			fmt.Fprintf(out, "keys (MRU->LRU): %v\n\n", store.Keys())

			// Staleness: entries age past the tolerance but stay readable.
			fmt.Fprintln(out, "-- staleness --")
			store.Set(querycache.Params{"page": 1}, "dashboard numbers", "dashboard")
			time.Sleep(staleTolerance + 50*time.Millisecond)
			if res, ok := store.Get(querycache.Params{"page": 1}, "dashboard"); ok {
				fmt.Fprintf(out, "aged entry still served: %q (stale=%t)\n\n", res.Data, res.Stale)
			}

			// Invalidation: mark one partition, leave the rest fresh.
			fmt.Fprintln(out, "-- invalidation --")
			n := store.Invalidate(regexp.MustCompile("^" + regexp.QuoteMeta(querycache.PartitionPrefix("gallery"))))
			fmt.Fprintf(out, "invalidated %d gallery entries; dashboard untouched\n\n", n)

			st := store.Stats()
			fmt.Fprintf(out, "stats: size=%d max=%d\n", st.Size, st.MaxSize)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxSize, "max-size", 5, "maximum number of entries")
	cmd.Flags().DurationVar(&staleTolerance, "stale-tolerance", 200*time.Millisecond, "age after which entries are reported stale")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "log format (json or console)")

	return cmd
}

// newReplayCmd creates the replay command, which runs a YAML workload
// file against a fresh store.
func (a *App) newReplayCmd() *cobra.Command {
	var (
		logLevel  string
		logFormat string
	)

	cmd := &cobra.Command{
		Use:   "replay <workload.yaml>",
		Short: "Replay a YAML workload against a fresh store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(logging.Config{Level: logLevel, Format: logFormat})
			logging.Debug().
				Add(logging.Component("cli")).
				Add(logging.Operation("replay")).
				Add(logging.Str("workload", args[0])).
				Msg("replaying workload")

			w, err := LoadWorkload(args[0])
			if err != nil {
				return err
			}
			return w.Run(a.stdout, memory.WithLogger(logging.Get()))
		},
	}

	cmd.Flags().StringVar(&logLevel, "log-level", "info", "log level (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&logFormat, "log-format", "console", "log format (json or console)")

	return cmd
}
