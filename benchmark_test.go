package querycache_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	querycache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/eviction"
	"github.com/krisalay/query-cache/types"
)

func newBenchmarkStore() *querycache.Store {
	return querycache.NewStore(eviction.NewTimerScheduler(), nil, nil)
}

//
// ================= READ BENCH =================
//

func BenchmarkGetHit(b *testing.B) {
	s := newBenchmarkStore()
	defer s.Close()

	s.SetValue("key", "value", types.RetentionForever)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Get("key")
	}
}

func BenchmarkGetMiss(b *testing.B) {
	s := newBenchmarkStore()
	defer s.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.Get(fmt.Sprintf("miss-%d", i))
	}
}

//
// ================= PARALLEL BENCH =================
//

func BenchmarkParallelGet(b *testing.B) {
	s := newBenchmarkStore()
	defer s.Close()

	for i := 0; i < 1000; i++ {
		s.SetValue(fmt.Sprintf("key-%d", i), i, types.RetentionForever)
	}

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			s.Get("key-42")
		}
	})
}

//
// ================= WRITE BENCH =================
//

func BenchmarkSetValue(b *testing.B) {
	s := newBenchmarkStore()
	defer s.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SetValue(fmt.Sprintf("key-%d", i), i, types.RetentionForever)
	}
}

func BenchmarkFanOut(b *testing.B) {
	s := newBenchmarkStore()
	defer s.Close()

	for i := 0; i < 8; i++ {
		defer s.Subscribe("hot", func(types.Entry) {})()
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s.SetValue("hot", i, types.RetentionForever)
	}
}

//
// ================= FETCH BENCH =================
//

func BenchmarkFetchDedup(b *testing.B) {
	s := newBenchmarkStore()
	defer s.Close()

	loader := types.LoaderFunc(func(ctx context.Context, key string) (any, error) {
		time.Sleep(time.Millisecond)
		return key, nil
	})

	ctx := context.Background()
	keys := make([]string, 100)
	for i := range keys {
		keys[i] = fmt.Sprintf("key-%d", i)
	}

	b.ResetTimer()

	wg := sync.WaitGroup{}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < b.N/10; j++ {
				s.Fetch(ctx, keys[j%len(keys)], loader, time.Minute)
			}
		}()
	}
	wg.Wait()
}
