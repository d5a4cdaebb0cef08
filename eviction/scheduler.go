package eviction

import "time"

/*
This package decides WHEN an unwatched entry dies, not what an entry is.

The store arms one deferred-removal slot per key when the key's last
subscriber detaches, and disarms it when a subscriber re-attaches.
Keeping that bookkeeping behind an interface means cancellation is
explicit and the whole thing is testable without real timers.
*/

/*
Scheduler is the contract for deferred entry removal.

Rules every implementation must obey:
- Arm replaces any existing slot for the key (the deadline resets)
- Disarm guarantees the slot's fire function will not run afterwards
- a slot fires at most once, and clears itself before firing
*/
type Scheduler interface {

	// Arm schedules fire to run after d. An existing slot for key is
	// replaced.
	Arm(key string, d time.Duration, fire func())

	// Disarm cancels the slot for key, if any.
	Disarm(key string)

	// Armed reports whether key currently has a slot.
	Armed(key string) bool

	// Close cancels all slots. The scheduler accepts no Arm calls
	// afterwards.
	Close()
}
