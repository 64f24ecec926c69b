package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mirkobrombin/go-stash/v1/cache"
)

var (
	concurrency = flag.Int("c", 50, "Number of concurrent clients")
	requests    = flag.Int("n", 100000, "Total number of requests")
	keySpace    = flag.Int("k", 100, "Number of distinct keys")
	ttl         = flag.Duration("ttl", time.Minute, "Absolute expiration")
	cost        = flag.Duration("cost", 0, "Simulated factory latency")
)

func main() {
	flag.Parse()

	log.Printf("Starting benchmark: %d requests, %d concurrency, %d keys, ttl %v", *requests, *concurrency, *keySpace, *ttl)

	c := cache.New[string, string](cache.WithAbsoluteExpiration[string, string](*ttl))
	defer c.Close()

	keys := make([]string, *keySpace)
	for i := range keys {
		keys[i] = uuid.NewString()
	}

	var computations int64
	factory := func(ctx context.Context, key string) (string, error) {
		atomic.AddInt64(&computations, 1)
		if *cost > 0 {
			time.Sleep(*cost)
		}
		return fmt.Sprintf("value-for-%s", key), nil
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	var ops, errorsCount int64

	start := time.Now()
	reqsPerWorker := *requests / *concurrency

	for i := 0; i < *concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < reqsPerWorker; j++ {
				key := keys[(worker+j)%len(keys)]
				if _, err := c.GetOrSet(ctx, key, factory); err != nil {
					atomic.AddInt64(&errorsCount, 1)
				}
				atomic.AddInt64(&ops, 1)
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	throughput := float64(ops) / elapsed.Seconds()
	stats := c.Metrics()

	log.Printf("Finished in %v", elapsed)
	log.Printf("Throughput: %.2f req/s", throughput)
	log.Printf("Factory invocations: %d (for %d keys)", atomic.LoadInt64(&computations), *keySpace)
	log.Printf("Stats: hits=%d misses=%d evictions=%d sweeps=%d size=%d",
		stats.Hits, stats.Misses, stats.Evictions, stats.Sweeps, stats.Size)
	if errorsCount > 0 {
		log.Printf("Errors: %d", errorsCount)
	}
}
