// Package main demonstrates the minimum working cache.
// This is the simplest possible pagecache example.
package main

import (
	"fmt"
	"regexp"
	"time"

	"github.com/felixgeelhaar/pagecache/domain/querycache"
	"github.com/felixgeelhaar/pagecache/infrastructure/storage/memory"
)

func main() {
	// 1. Construct a store. One instance per logical concern; hand it
	// to the consumers that need it instead of sharing ambiently.
	store := memory.New[[]string](
		memory.WithMaxSize(100),
		memory.WithStaleTolerance(5*time.Minute),
	)

	// 2. Populate it after a fetch completes.
	params := querycache.Params{"page": 1, "pageSize": 10}
	store.Set(params, []string{"sunset.jpg", "harbor.jpg"}, "gallery")

	// 3. Consult it before the next fetch.
	if res, ok := store.Get(params, "gallery"); ok {
		fmt.Printf("hit: %v (stale=%t)\n", res.Data, res.Stale)
	}

	// 4. After a mutation, mark the affected partition stale. The data
	// stays available for stale-while-revalidate use.
	n := store.Invalidate(regexp.MustCompile(`^gallery-`))
	fmt.Printf("invalidated %d entries\n", n)

	if res, ok := store.Get(params, "gallery"); ok {
		fmt.Printf("stale hit: %v (stale=%t)\n", res.Data, res.Stale)
	}

	stats := store.Stats()
	fmt.Printf("stats: %d/%d entries\n", stats.Size, stats.MaxSize)
}
