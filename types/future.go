package types

import (
	"context"
	"sync"
)

/*
Future is the handle to one in-flight fetch.

The cache only models the RESULT of a fetch, never how the fetch is
performed: whoever initiated the fetch settles the future exactly once
with Resolve or Reject, and everyone else — the store, deduplicated
callers, the UI binding layer — observes it.

A future settles at most once. Later Resolve/Reject calls are ignored,
which is what makes late settlements after supersede or eviction safe
to deliver: the store decides relevance, the future just reports.
*/
type Future struct {
	mu        sync.Mutex
	settled   bool
	value     any
	err       error
	done      chan struct{}
	callbacks []func(any, error)
}

// NewFuture creates an unsettled future.
func NewFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// ResolvedFuture returns a future that is already settled with value.
// Useful for seeding and for tests.
func ResolvedFuture(value any) *Future {
	f := NewFuture()
	f.Resolve(value)
	return f
}

// RejectedFuture returns a future that is already settled with err.
func RejectedFuture(err error) *Future {
	f := NewFuture()
	f.Reject(err)
	return f
}

// Resolve settles the future successfully. No-op if already settled.
func (f *Future) Resolve(value any) {
	f.settle(value, nil)
}

// Reject settles the future with a failure. No-op if already settled.
func (f *Future) Reject(err error) {
	f.settle(nil, err)
}

func (f *Future) settle(value any, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value = value
	f.err = err
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	// Callbacks run on the settling goroutine, in registration order,
	// outside the future's lock so they may wait on other futures.
	for _, cb := range cbs {
		cb(value, err)
	}
}

// Settled reports whether the future has a final outcome.
func (f *Future) Settled() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.settled
}

/*
OnSettle registers fn to run once the future settles.

If the future is already settled, fn runs immediately on the calling
goroutine. Otherwise it runs on the goroutine that settles the future.
Either way fn runs exactly once.
*/
func (f *Future) OnSettle(fn func(value any, err error)) {
	f.mu.Lock()
	if f.settled {
		value, err := f.value, f.err
		f.mu.Unlock()
		fn(value, err)
		return
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}

// Done returns a channel closed when the future settles.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

/*
Wait blocks until the future settles or ctx is cancelled.

Cancelling ctx abandons THIS wait only. The fetch itself is not
cancellable: the future will still settle and the store will still
record its outcome.
*/
func (f *Future) Wait(ctx context.Context) (any, error) {
	select {
	case <-f.done:
		// value/err are written before done is closed
		return f.value, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
