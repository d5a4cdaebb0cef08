package querycache

import (
	"context"
	"iter"
	"time"

	"github.com/krisalay/query-cache/types"
)

/*
Cache defines the PUBLIC API of the reactive query cache.
This is a contract that guarantees certain behaviors, without exposing internals.
All of the details like (lifecycle transitions, subscriber bookkeeping, fetch
deduplication, and timed eviction) are hidden behind this interface.
*/
type Cache interface {

	/*
		Has reports whether key currently has an entry.

		An entry counts whether it is resolved, pending, failed, or was
		merely created by a Subscribe that never fetched.
	*/
	Has(key string) bool

	/*
		Get returns the current snapshot for key.

		BEHAVIOR:
		---------
		- Non-blocking: reads never wait on a mutation in progress
		- Never triggers a fetch
		- The snapshot is immutable; inspect Pending/Err/Value to decide
		  what to present

		A snapshot carrying Hydrated=true is seen exactly once: the flag
		is consumed by the first read after Hydrate.
	*/
	Get(key string) (types.Entry, bool)

	/*
		SetValue records an immediately available outcome for key.

		BEHAVIOR:
		---------
		- Entry becomes resolved, LastUpdated = now
		- Pending, error, and stale all cleared
		- An outstanding future is superseded; its late settlement is
		  discarded
		- retention is folded in with "max wins"
		- Fans out to current subscribers before returning
	*/
	SetValue(key string, value any, retention time.Duration)

	/*
		SetFuture records an in-flight fetch future for key.

		BEHAVIOR:
		---------
		- Entry becomes/stays pending; error and stale cleared; a
		  previously resolved value stays readable while the fetch runs
		- On settlement the outcome is applied against the entry state
		  live AT SETTLEMENT TIME: discarded if the future was
		  superseded, re-created fresh if the entry was evicted,
		  otherwise resolved (success) or failed (error, previous value
		  intact)

		DEDUP CONTRACT:
		---------------
		The store keeps exactly one future per key. Callers that want
		at-most-one-fetch semantics must consult Get first and only call
		SetFuture when no pending future is recorded — or use Fetch,
		which does exactly that.
	*/
	SetFuture(key string, fut *types.Future, retention time.Duration)

	/*
		Hydrate seeds key with an already-resolved value.

		This is the injection path for a server-rendered snapshot: it
		behaves like SetValue plus the transient Hydrated flag consumed
		on first read.
	*/
	Hydrate(key string, value any, retention time.Duration)

	/*
		Invalidate marks key's entry stale and fans out.

		BEHAVIOR:
		---------
		- No-op if key has no entry
		- Does NOT clear the value
		- Does NOT cancel a pending future
		- Idempotent: invalidating a stale entry changes nothing else
	*/
	Invalidate(key string)

	/*
		Subscribe registers a change listener for key, lazily creating
		the entry if absent. A watched entry never has an armed eviction
		slot.

		The returned func unsubscribes (idempotently). Removing the last
		listener clears any lingering error and arms eviction per the
		entry's folded retention window: immediate removal at zero, none
		at all for RetentionForever.
	*/
	Subscribe(key string, listener types.Listener) func()

	/*
		Keys returns a lazy, finite sequence over the keys tracked at
		call time. It is a snapshot: it does not follow mutations that
		land during iteration.
	*/
	Keys() iter.Seq[string]

	// Len returns how many keys are currently tracked.
	Len() int

	/*
		Fetch is the read-through convenience for the binding layer.

		Fresh resolved value → returned directly. Outstanding future →
		waited on (never a second fetch for the same key). Otherwise the
		loader runs, with concurrent callers for the same key collapsed
		into a single invocation.
	*/
	Fetch(ctx context.Context, key string, loader types.Loader, retention time.Duration) (any, error)

	/*
		Close shuts the cache down by cancelling all outstanding
		eviction timers.

		WHEN TO CALL:
		-------------
		- Application shutdown
		- Tests cleanup
	*/
	Close()
}
