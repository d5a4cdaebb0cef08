package querycache

import (
	"context"
	"time"

	"github.com/krisalay/query-cache/types"
)

/*
Fetch is the read-through path for callers that want a value, not a
snapshot.

BEHAVIOR:
---------
1. Entry is resolved and not stale:
   - Return the value immediately (cache hit)

2. Entry has an outstanding fetch:
   - Wait on THAT future (dedup: the existing future is the single
     source of truth until it settles, a second one is never created)

3. Otherwise:
   - Invoke the loader, recording its future via SetFuture first so
     subscribers observe the pending state

singleflight collapses concurrent Fetch calls for the same key, so if
100 goroutines hit a cold key only ONE of them runs the loader and the
others share its outcome.

Cancelling ctx abandons the caller's wait only; the fetch still settles
and the store still records it.
*/
func (s *Store) Fetch(
	ctx context.Context,
	key string,
	loader types.Loader,
	retention time.Duration,
) (any, error) {

	if snap, ok := s.Get(key); ok {
		if snap.Pending {
			if fut := s.pendingFuture(key); fut != nil {
				s.metrics.Hit()
				return fut.Wait(ctx)
			}
		}
		if snap.Resolved() && !snap.Stale {
			s.metrics.Hit()
			return snap.Value, nil
		}
	}

	s.metrics.Miss()
	value, err, _ := s.sf.Do(key, func() (any, error) {
		fut := types.NewFuture()
		s.SetFuture(key, fut, retention)

		value, err := loader.Load(ctx, key)
		if err != nil {
			fut.Reject(err)
			return nil, err
		}
		fut.Resolve(value)
		return value, nil
	})
	return value, err
}

// pendingFuture returns the in-flight future recorded for key, if any.
func (s *Store) pendingFuture(key string) *types.Future {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		return e.fut
	}
	return nil
}
