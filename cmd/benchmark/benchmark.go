package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	querycache "github.com/krisalay/query-cache"
)

// ================= BACKING API =================

type FakeAPI struct{}

func (FakeAPI) Load(ctx context.Context, key string) (any, error) {
	// Pretend every load costs a network round trip.
	time.Sleep(time.Millisecond)
	return "payload-for-" + key, nil
}

// ================= BENCHMARK =================

func main() {
	ctx := context.Background()

	fmt.Println("\n================ QUERY CACHE LOAD BENCHMARK =================")

	// ---------------- Config ----------------
	const (
		preloadKeys = 100000
		goroutines  = 200
		opsPerG     = 5000
		retention   = time.Minute
	)

	fmt.Println("CONFIG")
	fmt.Println("---------------------------------")
	fmt.Println("Preload Keys :", preloadKeys)
	fmt.Println("Goroutines   :", goroutines)
	fmt.Println("Ops/Goroutine:", opsPerG)
	fmt.Println("Retention    :", retention)
	fmt.Println("---------------------------------")

	store := querycache.NewStore(nil, nil, nil)
	api := FakeAPI{}

	// ---------------- Preload ----------------
	fmt.Println("Preloading store...")
	for i := 0; i < preloadKeys; i++ {
		store.SetValue(fmt.Sprintf("key-%d", i), i, retention)
	}
	fmt.Println("Preload complete.")

	// ---------------- Warmup ----------------
	fmt.Println("Warming up...")
	for i := 0; i < 10000; i++ {
		store.Get(fmt.Sprintf("key-%d", i%preloadKeys))
	}
	fmt.Println("Warmup complete.")

	// ---------------- Load Test ----------------
	fmt.Println("Running concurrency benchmark...")

	start := time.Now()

	wg := sync.WaitGroup{}
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < opsPerG; j++ {
				key := fmt.Sprintf("key-%d", j%preloadKeys)
				if _, err := store.Fetch(ctx, key, api, retention); err != nil {
					panic(err)
				}
			}
		}(i)
	}

	wg.Wait()

	duration := time.Since(start)
	totalOps := goroutines * opsPerG

	fmt.Println("\n================ RESULTS =================")
	fmt.Printf("Total Operations : %d\n", totalOps)
	fmt.Printf("Total Time       : %v\n", duration)
	fmt.Printf("Throughput       : %.2f ops/sec\n", float64(totalOps)/duration.Seconds())
	fmt.Println("=========================================")

	store.Close()
}
