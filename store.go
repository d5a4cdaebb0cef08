package querycache

import (
	"iter"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/discard"
	"golang.org/x/sync/singleflight"

	"github.com/krisalay/query-cache/eviction"
	"github.com/krisalay/query-cache/lifecycle"
	"github.com/krisalay/query-cache/subscription"
	"github.com/krisalay/query-cache/types"
)

/*
Store is the main cache implementation.
This struct is the orchestrator that connects:
- the lifecycle transitions (what an entry becomes)
- the subscription registry (who is told about it)
- the eviction scheduler (when an unwatched entry dies)
- the published snapshot table (what readers see)
*/
type Store struct {
	// mu serializes mutations. Reads never take it: Get/Has/Keys go
	// straight to the copy-on-write snapshot table.
	mu sync.Mutex

	// entries is the mutable bookkeeping per key: lifecycle state, the
	// in-flight future, the folded retention window. Guarded by mu.
	entries map[string]*entry

	// table holds the published immutable snapshots read lock-free.
	table *snapshotTable

	// subs tracks the change listeners per key.
	subs *subscription.Registry

	// sched owns the deferred-removal slots for unwatched entries.
	sched eviction.Scheduler

	// sf collapses concurrent Fetch calls for the same key so only one
	// of them invokes the loader.
	sf singleflight.Group

	// metrics records what the cache is doing.
	metrics types.Metrics

	// log receives debug events (evictions, invalidations, discarded
	// settlements).
	log log.Interface
}

// entry is the store's private record for one key. The published
// types.Entry snapshot is derived from it after every mutation.
type entry struct {
	state     lifecycle.State
	fut       *types.Future
	retention time.Duration
	hydrated  bool
}

/*
NewStore creates a Store.

All three collaborators are optional:
- nil sched installs the real-time TimerScheduler
- nil metrics installs NoopMetrics
- nil logger discards everything

so the zero-config call is NewStore(nil, nil, nil).
*/
func NewStore(
	sched eviction.Scheduler,
	metrics types.Metrics,
	logger log.Interface,
) *Store {

	if sched == nil {
		sched = eviction.NewTimerScheduler()
	}
	if metrics == nil {
		metrics = types.NoopMetrics{}
	}
	if logger == nil {
		logger = &log.Logger{Handler: discard.Default, Level: log.InfoLevel}
	}

	return &Store{
		entries: make(map[string]*entry),
		table:   newSnapshotTable(),
		subs:    subscription.NewRegistry(),
		sched:   sched,
		metrics: metrics,
		log:     logger,
	}
}

// Has reports whether key is currently tracked, in any state.
// Lock-free: reads the published snapshot table.
func (s *Store) Has(key string) bool {
	_, ok := s.table.Get(key)
	return ok
}

/*
Get returns the current snapshot for key. Non-blocking, never triggers
a fetch.

If the entry was seeded through Hydrate, the returned snapshot carries
Hydrated=true exactly once; the flag is consumed by this first read and
never re-set.
*/
func (s *Store) Get(key string) (types.Entry, bool) {
	snap, ok := s.table.Get(key)
	if !ok {
		return types.Entry{}, false
	}
	if snap.Hydrated {
		s.consumeHydrated(key)
	}
	return snap, true
}

func (s *Store) consumeHydrated(key string) {
	s.mu.Lock()
	if e, ok := s.entries[key]; ok && e.hydrated {
		e.hydrated = false
		s.publishLocked(key, e)
	}
	s.mu.Unlock()
}

// Keys returns a lazy, finite sequence over the keys tracked at call
// time. It is a snapshot: it does not follow later mutations.
func (s *Store) Keys() iter.Seq[string] {
	return s.table.Keys()
}

// Len returns how many keys are currently tracked.
func (s *Store) Len() int {
	return int(s.table.Len())
}

/*
SetValue records an immediately available outcome for key: the entry
becomes resolved NOW, with pending, error and stale all cleared.

Any outstanding future for the key is superseded; its late settlement
will be discarded when it arrives.
*/
func (s *Store) SetValue(key string, value any, retention time.Duration) {
	s.mu.Lock()
	e, _ := s.ensureLocked(key)
	e.retention = maxRetention(e.retention, retention)
	if e.fut != nil {
		s.log.WithField("key", key).Debug("pending fetch superseded by direct value")
		e.fut = nil
	}
	e.hydrated = false
	e.state = lifecycle.Resolved(e.state, value, time.Now())
	snap := s.publishLocked(key, e)
	ls := s.subs.Listeners(key)
	evicted := s.scheduleLocked(key, e)
	s.mu.Unlock()

	if evicted {
		s.reportEviction(key)
	}
	s.notify(ls, snap)
}

/*
SetFuture records fut as the entry's in-flight fetch for key.

The entry becomes (or stays) pending; a previous error and the stale
mark are cleared; a previously resolved value stays readable while the
fetch runs.

When fut settles, its outcome is applied against the entry state LIVE
at settlement time:
- if the entry's current future is no longer fut, the settlement is
  discarded (a later Set superseded this fetch)
- if the entry was evicted while the fetch was outstanding, a fresh
  entry is re-created and the outcome applied to it
- otherwise success resolves the entry and failure records the error,
  leaving the previous value intact (stale-while-error)

A future that is already settled when passed in is applied right after
the pending snapshot is published, so subscribers still observe
pending → settled in order.
*/
func (s *Store) SetFuture(key string, fut *types.Future, retention time.Duration) {
	s.mu.Lock()
	e, _ := s.ensureLocked(key)
	e.retention = maxRetention(e.retention, retention)
	if e.fut != nil && e.fut != fut {
		// The store keeps exactly one future per key. Whether starting
		// a second fetch was a good idea is the caller's problem; see
		// Fetch for the dedup-respecting path.
		s.log.WithField("key", key).Debug("pending fetch superseded by new fetch")
	}
	e.fut = fut
	e.hydrated = false
	e.state = lifecycle.FetchStarted(e.state)
	snap := s.publishLocked(key, e)
	ls := s.subs.Listeners(key)
	evicted := s.scheduleLocked(key, e)
	s.mu.Unlock()

	if evicted {
		s.reportEviction(key)
	}
	s.notify(ls, snap)

	fut.OnSettle(func(value any, err error) {
		s.settle(key, fut, retention, value, err)
	})
}

// settle applies a future's outcome. It runs on the goroutine that
// settled the future, strictly after the SetFuture call that
// registered it returned.
func (s *Store) settle(key string, fut *types.Future, retention time.Duration, value any, err error) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if ok && e.fut != fut {
		s.mu.Unlock()
		s.log.WithField("key", key).Debug("discarding settlement of superseded fetch")
		return
	}
	if !ok {
		// Evicted while the fetch was in flight: re-create rather than
		// fail, the outcome is still the freshest data we have.
		e, _ = s.ensureLocked(key)
		e.retention = maxRetention(e.retention, retention)
	}
	e.fut = nil
	if err != nil {
		e.state = lifecycle.Failed(e.state, err)
	} else {
		e.state = lifecycle.Resolved(e.state, value, time.Now())
	}
	snap := s.publishLocked(key, e)
	ls := s.subs.Listeners(key)
	evicted := s.scheduleLocked(key, e)
	s.mu.Unlock()

	if evicted {
		s.reportEviction(key)
	}
	s.notify(ls, snap)
}

/*
Hydrate seeds key with an already-resolved value, tagged with the
transient Hydrated flag that the first Get consumes. This is the
injection path for a server-rendered snapshot; it is SetValue plus the
flag.
*/
func (s *Store) Hydrate(key string, value any, retention time.Duration) {
	s.mu.Lock()
	e, _ := s.ensureLocked(key)
	e.retention = maxRetention(e.retention, retention)
	e.fut = nil
	e.hydrated = true
	e.state = lifecycle.Resolved(e.state, value, time.Now())
	snap := s.publishLocked(key, e)
	ls := s.subs.Listeners(key)
	evicted := s.scheduleLocked(key, e)
	s.mu.Unlock()

	s.metrics.Hydration()
	if evicted {
		s.reportEviction(key)
	}
	s.notify(ls, snap)
}

/*
Invalidate marks key's entry stale and fans out. No-op if the key is
not tracked. It does not clear the value and does not cancel a pending
future, it only tells subscribers the data may be outdated.
*/
func (s *Store) Invalidate(key string) {
	s.mu.Lock()
	e, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.state = lifecycle.Invalidated(e.state)
	snap := s.publishLocked(key, e)
	ls := s.subs.Listeners(key)
	s.mu.Unlock()

	s.metrics.Invalidation()
	s.log.WithField("key", key).Debug("invalidated")
	s.notify(ls, snap)
}

/*
Subscribe registers listener for change notifications on key, lazily
creating the entry if absent, and disarms any eviction slot: a watched
entry never has one.

The returned func unsubscribes. It is idempotent. When it removes the
LAST listener the entry's lingering error is cleared and the eviction
slot is armed per the entry's folded retention window: immediate
removal at zero, no slot at all for RetentionForever.
*/
func (s *Store) Subscribe(key string, listener types.Listener) func() {
	s.mu.Lock()
	e, created := s.ensureLocked(key)
	s.sched.Disarm(key)
	id := s.subs.Add(key, listener)
	if created {
		s.publishLocked(key, e)
	}
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(key, id) })
	}
}

func (s *Store) unsubscribe(key string, id subscription.ID) {
	s.mu.Lock()
	remaining := s.subs.Remove(key, id)
	var evicted bool
	if remaining == 0 {
		if e, ok := s.entries[key]; ok {
			e.state = lifecycle.Detached(e.state)
			s.publishLocked(key, e)
			evicted = s.scheduleLocked(key, e)
		}
	}
	s.mu.Unlock()

	if evicted {
		s.reportEviction(key)
	}
}

// Close shuts the store down: all outstanding eviction timers are
// cancelled. Entries and listeners are left in place; the store is
// simply no longer allowed to remove anything on a clock.
func (s *Store) Close() {
	s.sched.Close()
}

//
// ---- internals ----
//

// ensureLocked returns the record for key, creating it (with zero
// retention, no value, no subscribers) if absent. Caller holds mu.
func (s *Store) ensureLocked(key string) (*entry, bool) {
	if e, ok := s.entries[key]; ok {
		return e, false
	}
	e := &entry{}
	s.entries[key] = e
	return e, true
}

// publishLocked rebuilds key's public snapshot from its record and
// swaps it into the table. Caller holds mu.
func (s *Store) publishLocked(key string, e *entry) types.Entry {
	snap := types.Entry{
		Key:         key,
		Value:       e.state.Value,
		HasValue:    e.state.HasValue,
		Err:         e.state.Err,
		Pending:     e.state.Pending,
		Stale:       e.state.Stale,
		Hydrated:    e.hydrated,
		LastUpdated: e.state.LastUpdated,
		Retention:   e.retention,
	}
	s.table.Put(key, snap)
	return snap
}

/*
scheduleLocked reconciles key's eviction slot with its subscriber
count. Caller holds mu. Returns true if the entry was removed on the
spot (zero retention, zero subscribers).

Eviction is governed purely by the subscriber count: whether a fetch
is pending is irrelevant. The slot is (re)armed with the CURRENT folded
window, so a Set that raises the retention of an already-unwatched
entry pushes its deadline out accordingly.
*/
func (s *Store) scheduleLocked(key string, e *entry) bool {
	if s.subs.Count(key) > 0 {
		s.sched.Disarm(key)
		return false
	}

	switch {
	case e.retention == 0:
		s.dropLocked(key)
		return true
	case e.retention == types.RetentionForever:
		s.sched.Disarm(key)
		return false
	default:
		s.sched.Arm(key, e.retention, func() { s.expire(key) })
		return false
	}
}

// dropLocked removes every trace of key. Caller holds mu.
func (s *Store) dropLocked(key string) {
	delete(s.entries, key)
	s.table.Delete(key)
	s.subs.Drop(key)
	s.sched.Disarm(key)
}

// expire is the eviction slot's fire function. It runs when key's
// retention window elapsed with no subscriber attached.
func (s *Store) expire(key string) {
	s.mu.Lock()
	if _, ok := s.entries[key]; !ok {
		s.mu.Unlock()
		return
	}
	if s.subs.Count(key) > 0 {
		// A subscriber re-attached and the disarm raced the firing
		// timer. The live count wins.
		s.mu.Unlock()
		return
	}
	s.dropLocked(key)
	s.mu.Unlock()

	s.reportEviction(key)
}

func (s *Store) reportEviction(key string) {
	s.metrics.Eviction()
	s.log.WithField("key", key).Debug("evicted")
}

// notify fans the snapshot out to the listeners captured at mutation
// time. It runs after mu is released so a listener may re-enter the
// store; the table already holds the snapshot it is being handed.
func (s *Store) notify(ls []types.Listener, snap types.Entry) {
	for _, l := range ls {
		l(snap)
	}
}

func maxRetention(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
