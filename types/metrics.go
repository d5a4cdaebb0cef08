package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in an entry's lifecycle. The store calls
these methods whenever the event happens.
*/
type Metrics interface {

	// Hit is called when Fetch serves a fresh value (or attaches to an
	// in-flight fetch) without invoking the loader.
	Hit()

	// Miss is called when Fetch has to invoke the loader.
	Miss()

	// Eviction is called when an entry is removed, either immediately
	// on last detach (zero retention) or when its timer fires.
	Eviction()

	// Invalidation is called when an entry is explicitly marked stale.
	Invalidation()

	// Hydration is called when an entry is seeded from a pre-resolved
	// snapshot.
	Hydration()
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

Users that don't care about metrics shouldn't have to implement them,
and the store shouldn't be littered with nil checks. Passing nil to
NewStore installs this implementation.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit()          {}
func (NoopMetrics) Miss()         {}
func (NoopMetrics) Eviction()     {}
func (NoopMetrics) Invalidation() {}
func (NoopMetrics) Hydration()    {}
