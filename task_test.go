package fastloop

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestReactor(t *testing.T) *Reactor {
	t.Helper()
	r, err := NewReactor()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestTask_SpawnSchedulesImmediately(t *testing.T) {
	r := newTestReactor(t)

	var polled atomic.Int32
	r.Spawn(FutureFunc(func(ctx *Context) Poll {
		polled.Add(1)
		return PollReady
	}))

	require.False(t, r.ready.empty())
	require.True(t, r.pollTasks())
	require.Equal(t, int32(1), polled.Load())
	require.True(t, r.ready.empty())
}

// TestTask_CoalescedWake covers Scenario B: multiple Wake calls before the
// next poll round collapse into exactly one re-poll.
func TestTask_CoalescedWake(t *testing.T) {
	r := newTestReactor(t)

	var polls atomic.Int32
	var savedWaker *Waker
	r.Spawn(FutureFunc(func(ctx *Context) Poll {
		n := polls.Add(1)
		if n == 1 {
			savedWaker = ctx.Waker()
			return PollPending
		}
		return PollReady
	}))

	require.True(t, r.pollTasks()) // first poll: registers savedWaker, returns pending
	require.Equal(t, int32(1), polls.Load())

	savedWaker.Wake()
	savedWaker.Clone().WakeByRef()
	savedWaker.Clone().WakeByRef()

	require.True(t, r.pollTasks()) // exactly one more poll despite 3 wakes
	require.Equal(t, int32(2), polls.Load())
	require.True(t, r.ready.empty())
}

func TestTask_PanicIsolatedAsReady(t *testing.T) {
	r := newTestReactor(t)

	r.Spawn(FutureFunc(func(ctx *Context) Poll {
		panic("boom")
	}))

	require.NotPanics(t, func() {
		r.pollTasks()
	})
	require.True(t, r.ready.empty())
	require.True(t, r.quiescent())
}

func TestTask_WakeAfterDoneIsNoop(t *testing.T) {
	r := newTestReactor(t)

	var savedWaker *Waker
	r.Spawn(FutureFunc(func(ctx *Context) Poll {
		savedWaker = ctx.Waker()
		return PollReady
	}))
	r.pollTasks()
	require.True(t, r.ready.empty())

	savedWaker.Wake()
	require.False(t, r.ready.empty(), "schedule always re-enqueues; task.poll is responsible for the done short-circuit")

	require.NotPanics(t, func() { r.pollTasks() })
}

func TestPoll_String(t *testing.T) {
	require.Equal(t, "pending", PollPending.String())
	require.Equal(t, "ready", PollReady.String())
}
