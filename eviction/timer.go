// This file implements the real-time scheduler used in production.

package eviction

import (
	"sync"
	"time"
)

// TimerScheduler backs each armed slot with a time.AfterFunc timer.
type TimerScheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
	closed bool
}

func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[string]*time.Timer)}
}

/*
Arm schedules fire after d, replacing any timer already armed for key.

The callback re-checks that it is still the CURRENT timer for the key
before firing. time.Timer.Stop cannot un-run a callback that already
started, so without this check a stale timer that lost the race with
Disarm+Arm could fire against a slot that now belongs to a newer timer.
*/
func (t *TimerScheduler) Arm(key string, d time.Duration, fire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if old, ok := t.timers[key]; ok {
		old.Stop()
	}

	var tm *time.Timer
	tm = time.AfterFunc(d, func() {
		t.mu.Lock()
		if cur, ok := t.timers[key]; !ok || cur != tm {
			// superseded or disarmed while we were being scheduled
			t.mu.Unlock()
			return
		}
		delete(t.timers, key)
		t.mu.Unlock()

		fire()
	})
	t.timers[key] = tm
}

// Disarm stops and drops the timer for key, if any.
func (t *TimerScheduler) Disarm(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if tm, ok := t.timers[key]; ok {
		tm.Stop()
		delete(t.timers, key)
	}
}

// Armed reports whether key currently has a live timer.
func (t *TimerScheduler) Armed(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, ok := t.timers[key]
	return ok
}

// Close stops every timer and rejects further Arm calls.
func (t *TimerScheduler) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	for key, tm := range t.timers {
		tm.Stop()
		delete(t.timers, key)
	}
}
