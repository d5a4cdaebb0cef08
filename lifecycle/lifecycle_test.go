package lifecycle_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krisalay/query-cache/lifecycle"
)

func TestFetchStartedClearsErrorAndStale(t *testing.T) {
	s := lifecycle.State{
		Value:    "old",
		HasValue: true,
		Err:      errors.New("previous failure"),
		Stale:    true,
	}

	next := lifecycle.FetchStarted(s)

	assert.True(t, next.Pending)
	assert.NoError(t, next.Err, "pending and failed are mutually exclusive")
	assert.False(t, next.Stale)
	assert.Equal(t, "old", next.Value, "the old value stays readable during the fetch")
	assert.True(t, next.HasValue)
}

func TestResolvedReplacesEverything(t *testing.T) {
	at := time.Now()
	s := lifecycle.State{Pending: true, Stale: true, Err: errors.New("x")}

	next := lifecycle.Resolved(s, 42, at)

	assert.Equal(t, 42, next.Value)
	assert.True(t, next.HasValue)
	assert.NoError(t, next.Err)
	assert.False(t, next.Pending)
	assert.False(t, next.Stale)
	assert.Equal(t, at, next.LastUpdated)
}

func TestFailedKeepsValueAndTimestamp(t *testing.T) {
	resolved := time.Now().Add(-time.Minute)
	s := lifecycle.State{
		Value:       "v",
		HasValue:    true,
		Pending:     true,
		LastUpdated: resolved,
	}

	boom := errors.New("boom")
	next := lifecycle.Failed(s, boom)

	assert.Equal(t, boom, next.Err)
	assert.False(t, next.Pending)
	assert.Equal(t, "v", next.Value)
	assert.Equal(t, resolved, next.LastUpdated)
}

func TestInvalidatedIsIdempotent(t *testing.T) {
	s := lifecycle.State{Value: "v", HasValue: true}

	once := lifecycle.Invalidated(s)
	twice := lifecycle.Invalidated(once)

	assert.True(t, once.Stale)
	assert.Equal(t, once, twice)
}

func TestDetachedClearsOnlyError(t *testing.T) {
	at := time.Now()
	s := lifecycle.State{
		Value:       "v",
		HasValue:    true,
		Err:         errors.New("lingering"),
		Stale:       true,
		LastUpdated: at,
	}

	next := lifecycle.Detached(s)

	assert.NoError(t, next.Err)
	assert.Equal(t, "v", next.Value)
	assert.True(t, next.Stale)
	assert.Equal(t, at, next.LastUpdated)
}
