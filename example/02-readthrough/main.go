// Package main demonstrates stale-while-revalidate fetching through
// the read-through client.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/felixgeelhaar/pagecache/application/readthrough"
	"github.com/felixgeelhaar/pagecache/domain/querycache"
	"github.com/felixgeelhaar/pagecache/infrastructure/logging"
	"github.com/felixgeelhaar/pagecache/infrastructure/storage/memory"
)

func main() {
	logging.Init(logging.Config{Level: "debug", Format: "console"})

	store := memory.New[[]string](
		memory.WithStaleTolerance(200*time.Millisecond),
		memory.WithLogger(logging.Get()),
	)
	client := readthrough.New[[]string](store,
		readthrough.WithLogger(logging.Get()),
	)

	params := querycache.Params{"page": 1, "pageSize": 10}
	fetch := func(ctx context.Context) ([]string, error) {
		// Stands in for the network call.
		return []string{"sunset.jpg", "harbor.jpg"}, nil
	}

	// Miss: fetches synchronously and caches.
	photos, err := client.Get(context.Background(), params, "gallery", fetch)
	if err != nil {
		log.Fatalf("fetch: %v", err)
	}
	fmt.Printf("first read: %v\n", photos)

	// Fresh hit: served from the cache, no fetch.
	photos, _ = client.Get(context.Background(), params, "gallery", fetch)
	fmt.Printf("second read: %v\n", photos)

	// Let the entry age past the tolerance, then read again: the stale
	// value is served immediately while a background refresh runs.
	time.Sleep(250 * time.Millisecond)
	photos, _ = client.Get(context.Background(), params, "gallery", fetch)
	fmt.Printf("stale read: %v\n", photos)

	client.Wait()
	fmt.Println("revalidated in background")
}
