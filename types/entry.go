package types

import (
	"math"
	"time"
)

/*
RetentionForever keeps an entry alive indefinitely after its last
subscriber detaches.

Retention windows are folded with "max wins" (see Entry.Retention), so
using the largest representable duration as the sentinel means the fold
is a plain max and Forever always dominates.
*/
const RetentionForever time.Duration = math.MaxInt64

/*
Entry is the published snapshot of one cache key.

Snapshots are immutable: the store builds a fresh Entry after every
mutation and hands the SAME snapshot to readers and to every notified
listener. A consumer never observes a half-updated entry.

Field relationships the store maintains:
- Err and Pending are never both set (a fetch start clears the error)
- Value survives a failed refetch (stale-while-error)
- LastUpdated is zero until the first successful resolution
*/
type Entry struct {
	// Key is the cache key this snapshot belongs to.
	Key string

	// Value is the last successfully resolved payload.
	// Only meaningful when HasValue is true.
	Value any

	// HasValue distinguishes "resolved to nil" from "never resolved".
	HasValue bool

	// Err is the last fetch failure. Cleared on the next fetch start,
	// on a successful resolution, and when the last subscriber detaches.
	Err error

	// Pending is true while an in-flight fetch future is recorded for
	// this key. At most one future is recorded at any time.
	Pending bool

	// Stale is set by explicit invalidation and cleared when a new
	// fetch is started.
	Stale bool

	// Hydrated marks an entry seeded from a pre-resolved snapshot
	// (e.g. a server-rendered payload). It is consumed on first read:
	// exactly one Get observes it true.
	Hydrated bool

	// LastUpdated is the time of the last successful resolution.
	// Zero means the entry never resolved.
	LastUpdated time.Time

	// Retention is how long the entry survives after its last
	// subscriber detaches. It is the maximum of all windows requested
	// for this key since creation: a longer-lived caller's request is
	// never cut short by a shorter one.
	Retention time.Duration
}

// Resolved reports whether the entry currently holds a usable value
// with no outstanding fetch and no recorded failure.
func (e Entry) Resolved() bool {
	return e.HasValue && !e.Pending && e.Err == nil
}

// Listener is a change callback registered through Subscribe.
// It receives the snapshot produced by the mutation that triggered it.
type Listener func(Entry)
