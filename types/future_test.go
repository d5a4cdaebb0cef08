package types_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/query-cache/types"
)

func TestFutureSettlesOnce(t *testing.T) {
	f := types.NewFuture()

	f.Resolve("first")
	f.Reject(errors.New("too late"))
	f.Resolve("also too late")

	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", v)
}

func TestOnSettleAfterSettlementRunsImmediately(t *testing.T) {
	f := types.ResolvedFuture(7)

	var got any
	f.OnSettle(func(v any, err error) { got = v })
	assert.Equal(t, 7, got)
}

func TestOnSettleBeforeSettlementRunsOnSettle(t *testing.T) {
	f := types.NewFuture()

	calls := 0
	var got any
	var gotErr error
	f.OnSettle(func(v any, err error) {
		calls++
		got, gotErr = v, err
	})
	require.Zero(t, calls)

	boom := errors.New("boom")
	f.Reject(boom)

	assert.Equal(t, 1, calls)
	assert.Nil(t, got)
	assert.Equal(t, boom, gotErr)
}

func TestWaitHonorsContext(t *testing.T) {
	f := types.NewFuture()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// The abandoned wait did not consume the outcome.
	f.Resolve("late")
	v, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", v)
}

func TestDoneClosesOnSettle(t *testing.T) {
	f := types.NewFuture()

	select {
	case <-f.Done():
		t.Fatal("done closed before settlement")
	default:
	}

	f.Resolve(nil)
	select {
	case <-f.Done():
	default:
		t.Fatal("done not closed after settlement")
	}
	assert.True(t, f.Settled())
}
