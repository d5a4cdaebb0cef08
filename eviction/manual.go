// This file implements a scheduler with no clock at all.
// Slots arm and disarm normally but only fire when the owner says so.
// Tests use it to drive eviction deterministically; an embedder with
// its own event loop can use it the same way.

package eviction

import (
	"sync"
	"time"
)

type manualSlot struct {
	after time.Duration
	fire  func()
}

// ManualScheduler records armed slots and fires them on demand.
type ManualScheduler struct {
	mu     sync.Mutex
	slots  map[string]manualSlot
	closed bool
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{slots: make(map[string]manualSlot)}
}

// Arm records a slot for key, replacing any existing one.
func (m *ManualScheduler) Arm(key string, d time.Duration, fire func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.slots[key] = manualSlot{after: d, fire: fire}
}

// Disarm drops the slot for key, if any.
func (m *ManualScheduler) Disarm(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.slots, key)
}

// Armed reports whether key currently has a slot.
func (m *ManualScheduler) Armed(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.slots[key]
	return ok
}

// After returns the window the slot for key was armed with. It lets a
// test assert the EFFECTIVE retention window, not just armed-ness.
func (m *ManualScheduler) After(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.slots[key]
	return s.after, ok
}

/*
Fire triggers the slot for key as if its deadline had passed.

The slot is cleared BEFORE its fire function runs, matching the timer
implementation, and fire runs outside the scheduler's lock so it may
re-enter the scheduler (the store's eviction path re-arms and disarms).
Returns false if no slot was armed.
*/
func (m *ManualScheduler) Fire(key string) bool {
	m.mu.Lock()
	s, ok := m.slots[key]
	if ok {
		delete(m.slots, key)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.fire()
	return true
}

// Close drops all slots and rejects further Arm calls.
func (m *ManualScheduler) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.slots = make(map[string]manualSlot)
}
