// This file is the policy layer of the cache: it decides what an
// entry's next state is for each lifecycle event, and nothing else.

package lifecycle

import "time"

/*
State is the mutable core of one cache entry.

The store owns one State per key and advances it exclusively through
the transition functions below. Every transition takes a State by value
and returns the next one, so the functions are pure and the invariants
live in exactly one place:

- an entry is never pending and failed at the same time
  (FetchStarted clears Err, Failed clears Pending)
- a failure never destroys a previously resolved value
- staleness is set only by Invalidated and cleared by a fetch start
*/
type State struct {
	// Value is the last successfully resolved payload.
	Value any

	// HasValue distinguishes "resolved to nil" from "never resolved".
	HasValue bool

	// Err is the last fetch failure, if any.
	Err error

	// Pending is true while a fetch future is outstanding.
	Pending bool

	// Stale marks the value as possibly outdated.
	Stale bool

	// LastUpdated is the time of the last successful resolution.
	LastUpdated time.Time
}

/*
FetchStarted is the transition for "a new fetch future was recorded".

Starting a fetch means the caller is actively replacing whatever is
here, so the previous failure and the stale mark no longer describe
the entry. The resolved value stays readable while the fetch runs.
*/
func FetchStarted(s State) State {
	s.Pending = true
	s.Err = nil
	s.Stale = false
	return s
}

/*
Resolved is the transition for a successful outcome, whether it arrived
as an immediate value or as the settlement of a future. The entry
becomes fully fresh: value replaced, error and stale cleared, pending
cleared, LastUpdated stamped with the resolution time.
*/
func Resolved(s State, value any, at time.Time) State {
	s.Value = value
	s.HasValue = true
	s.Err = nil
	s.Pending = false
	s.Stale = false
	s.LastUpdated = at
	return s
}

/*
Failed is the transition for a fetch future settling with an error.

Only Err and Pending change. The previous value and its LastUpdated
stamp survive, so a consumer can keep showing stale data next to an
error indicator.
*/
func Failed(s State, err error) State {
	s.Err = err
	s.Pending = false
	return s
}

// Invalidated marks the entry stale. Idempotent: invalidating an
// already-stale entry changes nothing else.
func Invalidated(s State) State {
	s.Stale = true
	return s
}

// Detached is the transition for "the last subscriber unsubscribed".
// A lingering error is cleared so a later re-subscriber starts from a
// clean slate; everything else is left for the retention window to
// decide.
func Detached(s State) State {
	s.Err = nil
	return s
}
