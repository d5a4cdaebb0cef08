package subscription

import (
	"sync"

	"github.com/krisalay/query-cache/types"
)

/*
This package tracks WHO is watching each cache key.

Listeners are plain funcs, and funcs are not comparable in Go, so
"uniqueness by identity" is implemented by handing out an ID per Add
and removing by ID. The same func value subscribed twice is two
registrations, which is exactly the semantic a mount/unmount pairing
wants.
*/

// ID identifies one registration. IDs are never reused within a
// registry's lifetime.
type ID uint64

// Registry is the per-key listener table.
type Registry struct {
	mu    sync.Mutex
	next  ID
	byKey map[string]map[ID]types.Listener
}

func NewRegistry() *Registry {
	return &Registry{byKey: make(map[string]map[ID]types.Listener)}
}

// Add registers l for key and returns the ID to remove it with.
func (r *Registry) Add(key string, l types.Listener) ID {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	set, ok := r.byKey[key]
	if !ok {
		set = make(map[ID]types.Listener)
		r.byKey[key] = set
	}
	set[r.next] = l
	return r.next
}

// Remove drops the registration id for key and returns how many
// listeners remain. Removing an unknown id is a no-op.
func (r *Registry) Remove(key string, id ID) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.byKey[key]
	if !ok {
		return 0
	}
	delete(set, id)
	if len(set) == 0 {
		delete(r.byKey, key)
		return 0
	}
	return len(set)
}

// Count returns the number of listeners currently registered for key.
func (r *Registry) Count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.byKey[key])
}

/*
Listeners returns the listeners registered for key at call time.

The store captures this slice while holding its own lock and fans out
AFTER releasing it, so the set of notified listeners is the set current
at mutation time even if registrations change during delivery.
Iteration order is map order: the listener set is a set, not a
sequence.
*/
func (r *Registry) Listeners(key string) []types.Listener {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.byKey[key]
	if len(set) == 0 {
		return nil
	}
	out := make([]types.Listener, 0, len(set))
	for _, l := range set {
		out = append(out, l)
	}
	return out
}

// Drop removes every registration for key. Used when the entry itself
// is evicted.
func (r *Registry) Drop(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.byKey, key)
}
