package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"

	querycache "github.com/krisalay/query-cache"
	"github.com/krisalay/query-cache/types"
)

// ================= LOGGING =================

// demoHandler formats cache debug events and writes them to stdout.
type demoHandler struct{}

func (h *demoHandler) HandleLog(e *log.Entry) error {
	level := strings.ToUpper(e.Level.String())
	key, _ := e.Fields.Get("key").(string)
	fmt.Fprintf(os.Stdout, "LOG    → %.1s %s key=%s\n", level, e.Message, key)
	return nil
}

func newDemoLogger() log.Interface {
	return &log.Logger{Handler: &demoHandler{}, Level: log.DebugLevel}
}

// ================= METRICS =================

type Metrics struct {
	mu            sync.Mutex
	hits          int
	misses        int
	evictions     int
	invalidations int
	hydrations    int
}

func (m *Metrics) Hit()          { m.mu.Lock(); m.hits++; m.mu.Unlock() }
func (m *Metrics) Miss()         { m.mu.Lock(); m.misses++; m.mu.Unlock() }
func (m *Metrics) Eviction()     { m.mu.Lock(); m.evictions++; m.mu.Unlock() }
func (m *Metrics) Invalidation() { m.mu.Lock(); m.invalidations++; m.mu.Unlock() }
func (m *Metrics) Hydration()    { m.mu.Lock(); m.hydrations++; m.mu.Unlock() }

func (m *Metrics) Print() {
	fmt.Println("\n==================== METRICS ====================")
	fmt.Printf("HITS          : %d\n", m.hits)
	fmt.Printf("MISSES        : %d\n", m.misses)
	fmt.Printf("EVICTIONS     : %d\n", m.evictions)
	fmt.Printf("INVALIDATIONS : %d\n", m.invalidations)
	fmt.Printf("HYDRATIONS    : %d\n", m.hydrations)
}

// ================= BACKING API =================

type SlowAPI struct {
	mu    sync.Mutex
	calls int
}

func (a *SlowAPI) Load(ctx context.Context, key string) (any, error) {
	a.mu.Lock()
	a.calls++
	n := a.calls
	a.mu.Unlock()

	fmt.Printf("API    → load #%d for %s\n", n, key)
	time.Sleep(50 * time.Millisecond)
	return "payload-for-" + key, nil
}

// ================= MAIN =================

func main() {
	ctx := context.Background()

	fmt.Println("\n==================== SYSTEM BOOT ====================")
	fmt.Println("SCHEDULER : timer-backed eviction")
	fmt.Println("RETENTION : 2s after last unsubscribe")
	fmt.Println("LOG LEVEL : debug")

	metrics := &Metrics{}
	store := querycache.NewStore(nil, metrics, newDemoLogger())
	api := &SlowAPI{}

	const retention = 2 * time.Second

	// The store travels through the context, never a global.
	ctx = querycache.NewContext(ctx, store)

	// ====================================================
	fmt.Println("\n==================== 1) SUBSCRIBE & FETCH ====================")

	unsub := store.Subscribe("user:1", func(snap types.Entry) {
		fmt.Printf("NOTIFY → user:1 pending=%v value=%v err=%v stale=%v\n",
			snap.Pending, snap.Value, snap.Err, snap.Stale)
	})

	v, _ := store.Fetch(ctx, "user:1", api, retention)
	fmt.Println("CACHE  → FETCH user:1 =", v)

	// ====================================================
	fmt.Println("\n==================== 2) FETCH DEDUP ====================")

	wg := sync.WaitGroup{}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			val, _ := store.Fetch(ctx, "user:2", api, retention)
			fmt.Printf("GOROUTINE-%d → FETCH user:2 = %v\n", id, val)
		}(i)
	}
	wg.Wait()
	fmt.Println("CACHE  → one API load served five callers")

	// ====================================================
	fmt.Println("\n==================== 3) INVALIDATE & REFETCH ====================")

	store.Invalidate("user:1")
	snap, _ := store.Get("user:1")
	fmt.Println("CACHE  → user:1 stale =", snap.Stale)

	v, _ = store.Fetch(ctx, "user:1", api, retention)
	fmt.Println("CACHE  → FETCH user:1 after invalidate =", v)

	// ====================================================
	fmt.Println("\n==================== 4) STALE-WHILE-ERROR ====================")

	store.SetFuture("user:1", types.RejectedFuture(fmt.Errorf("backend down")), retention)
	snap, _ = store.Get("user:1")
	fmt.Printf("CACHE  → user:1 value=%v err=%v (old value survives the failure)\n",
		snap.Value, snap.Err)

	// ====================================================
	fmt.Println("\n==================== 5) HYDRATION ====================")

	store.Hydrate("user:3", "server-rendered-payload", types.RetentionForever)
	first, _ := store.Get("user:3")
	second, _ := store.Get("user:3")
	fmt.Printf("CACHE  → user:3 first read hydrated=%v, second read hydrated=%v\n",
		first.Hydrated, second.Hydrated)

	// ====================================================
	fmt.Println("\n==================== 6) EVICTION ====================")

	unsub()
	fmt.Println("CACHE  → last subscriber of user:1 detached, retention window running")

	time.Sleep(retention + 500*time.Millisecond)
	fmt.Println("CACHE  → HAS user:1 after retention window =", store.Has("user:1"))

	fmt.Println("CACHE  → tracked keys:")
	for key := range store.Keys() {
		fmt.Println("         -", key)
	}

	// ====================================================
	metrics.Print()

	// ====================================================
	fmt.Println("\n==================== SHUTDOWN ====================")
	store.Close()
	fmt.Println("SYSTEM → store closed cleanly")
}
