package eviction_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krisalay/query-cache/eviction"
)

//
// ================= TIMER SCHEDULER =================
//

func TestTimerSchedulerFires(t *testing.T) {
	sched := eviction.NewTimerScheduler()
	defer sched.Close()

	fired := make(chan struct{})
	sched.Arm("k", 10*time.Millisecond, func() { close(fired) })
	require.True(t, sched.Armed("k"))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timer never fired")
	}
	assert.False(t, sched.Armed("k"), "a fired slot clears itself")
}

func TestTimerSchedulerDisarmPreventsFire(t *testing.T) {
	sched := eviction.NewTimerScheduler()
	defer sched.Close()

	var fired atomic.Bool
	sched.Arm("k", 20*time.Millisecond, func() { fired.Store(true) })
	sched.Disarm("k")
	assert.False(t, sched.Armed("k"))

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestTimerSchedulerArmReplacesSlot(t *testing.T) {
	sched := eviction.NewTimerScheduler()
	defer sched.Close()

	var first atomic.Bool
	fired := make(chan struct{})
	sched.Arm("k", 20*time.Millisecond, func() { first.Store(true) })
	sched.Arm("k", 40*time.Millisecond, func() { close(fired) })

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("replacement slot never fired")
	}
	assert.False(t, first.Load(), "the replaced slot must not fire")
}

func TestTimerSchedulerCloseStopsEverything(t *testing.T) {
	sched := eviction.NewTimerScheduler()

	var fired atomic.Bool
	sched.Arm("a", 20*time.Millisecond, func() { fired.Store(true) })
	sched.Close()

	sched.Arm("b", time.Millisecond, func() { fired.Store(true) })
	assert.False(t, sched.Armed("b"), "a closed scheduler rejects Arm")

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

//
// ================= MANUAL SCHEDULER =================
//

func TestManualSchedulerFireOnDemand(t *testing.T) {
	sched := eviction.NewManualScheduler()
	defer sched.Close()

	var fired atomic.Int64
	sched.Arm("k", 5*time.Second, func() { fired.Add(1) })

	after, ok := sched.After("k")
	require.True(t, ok)
	assert.Equal(t, 5*time.Second, after)

	require.True(t, sched.Fire("k"))
	assert.Equal(t, int64(1), fired.Load())
	assert.False(t, sched.Armed("k"))

	// A cleared slot does not fire twice.
	assert.False(t, sched.Fire("k"))
	assert.Equal(t, int64(1), fired.Load())
}

func TestManualSchedulerDisarm(t *testing.T) {
	sched := eviction.NewManualScheduler()
	defer sched.Close()

	sched.Arm("k", time.Second, func() { t.Error("disarmed slot fired") })
	sched.Disarm("k")

	assert.False(t, sched.Armed("k"))
	assert.False(t, sched.Fire("k"))
}

func TestManualSchedulerFireMayRearm(t *testing.T) {
	sched := eviction.NewManualScheduler()
	defer sched.Close()

	// The store's eviction path re-enters the scheduler from inside a
	// fire func; that must not deadlock.
	sched.Arm("k", time.Second, func() {
		sched.Arm("k", 2*time.Second, func() {})
	})

	require.True(t, sched.Fire("k"))
	after, ok := sched.After("k")
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, after)
}
