package querycache

import (
	"iter"
	"sync/atomic"

	"github.com/krisalay/query-cache/types"
)

/*
snapshotTable is where published entry snapshots live. This is NOT a
normal map.

- Get/Has/Keys must be non-blocking: they run on the consumer's read
  path (a render loop) and must never wait on a mutation in progress
- mutations are less frequent and can afford extra work

To achieve this we use "Copy-On-Write" (COW):
- readers always see an immutable map of immutable snapshots
- the writer (the store, under its own lock) builds a NEW map per
  mutation and swaps it in atomically

A reader therefore observes either the table from before a mutation or
the table from after it, never a half-applied one.
*/
type snapshotTable struct {
	// data holds the actual map[string]types.Entry.
	// atomic.Value lets the store swap the entire map atomically and
	// lets readers access it without locks.
	data atomic.Value

	// size tracks the number of entries so we don't count map entries
	// on every Len call.
	size atomic.Int64
}

func newSnapshotTable() *snapshotTable {
	t := &snapshotTable{}
	t.data.Store(make(map[string]types.Entry))
	return t
}

// Get returns the current snapshot for key.
func (t *snapshotTable) Get(key string) (types.Entry, bool) {
	m := t.data.Load().(map[string]types.Entry)
	snap, ok := m[key]
	return snap, ok
}

// Put publishes a new snapshot for key.
// Copy-on-write: load the current map, copy it with the new snapshot,
// swap it in atomically.
func (t *snapshotTable) Put(key string, snap types.Entry) {
	old := t.data.Load().(map[string]types.Entry)

	n := make(map[string]types.Entry, len(old)+1)
	for k, v := range old {
		n[k] = v
	}
	n[key] = snap

	t.data.Store(n)
	t.size.Store(int64(len(n)))
}

// Delete unpublishes key. Same copy-on-write dance as Put.
func (t *snapshotTable) Delete(key string) {
	old := t.data.Load().(map[string]types.Entry)
	if _, ok := old[key]; !ok {
		return
	}

	n := make(map[string]types.Entry, len(old))
	for k, v := range old {
		if k != key {
			n[k] = v
		}
	}

	t.data.Store(n)
	t.size.Store(int64(len(n)))
}

// Len returns how many entries are published.
func (t *snapshotTable) Len() int64 {
	return t.size.Load()
}

/*
Keys returns a lazy sequence over the keys published at call time.

The map is captured when Keys is called, so the sequence is a finite
snapshot: mutations that land while the caller is still iterating are
not reflected, and iterating twice re-yields the same capture.
*/
func (t *snapshotTable) Keys() iter.Seq[string] {
	m := t.data.Load().(map[string]types.Entry)
	return func(yield func(string) bool) {
		for k := range m {
			if !yield(k) {
				return
			}
		}
	}
}
