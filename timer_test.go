package fastloop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimerWheel_ScheduleComputesSlot(t *testing.T) {
	w := NewTimerWheel()
	r := newTestReactor(t)
	tk := &task{reactor: r}
	waker := newWaker(tk)

	_, handle := w.Schedule(50*time.Millisecond, waker)
	require.NotNil(t, handle)

	wantSlot := uint64(5) // 50ms / 10ms
	require.Len(t, w.slots[wantSlot], 1)
}

func TestTimerWheel_TickFiresWaker(t *testing.T) {
	w := NewTimerWheel()
	r := newTestReactor(t)
	tk := &task{reactor: r}
	waker := newWaker(tk)

	w.Schedule(10*time.Millisecond, waker) // ticks=1, slot=(0+1)%256=1

	w.Tick() // cursor 0->1, drains the pre-advance slot 0: nothing there yet
	require.False(t, tk.scheduled.Load())

	w.Tick() // cursor 1->2, drains the pre-advance slot 1: fires
	require.True(t, tk.scheduled.Load())
	require.False(t, r.ready.empty())
}

// TestTimerWheel_ZeroDelayFiresOnNextTick covers the spec §8 boundary
// behavior: a delay-0 timer (ticks==0, landing in the current slot) must
// fire on the very next Tick, not a full revolution later.
func TestTimerWheel_ZeroDelayFiresOnNextTick(t *testing.T) {
	w := NewTimerWheel()
	r := newTestReactor(t)
	tk := &task{reactor: r}
	waker := newWaker(tk)

	w.Schedule(0, waker) // ticks=0, slot=cursor=0

	w.Tick() // cursor 0->1, drains the pre-advance slot 0: fires immediately
	require.True(t, tk.scheduled.Load())
	require.False(t, r.ready.empty())
}

// TestTimerWheel_ExactRevolutionDelayFiresOnNextTick covers the same
// boundary for a delay that is an exact multiple of one full revolution
// (2560ms): ticks % WheelSize == 0, landing in the current slot again.
func TestTimerWheel_ExactRevolutionDelayFiresOnNextTick(t *testing.T) {
	w := NewTimerWheel()
	r := newTestReactor(t)
	tk := &task{reactor: r}
	waker := newWaker(tk)

	w.Schedule(WheelSize*SlotDuration, waker) // ticks=256, slot=(0+256)%256=0

	w.Tick() // cursor 0->1, drains the pre-advance slot 0: fires immediately
	require.True(t, tk.scheduled.Load())
	require.False(t, r.ready.empty())
}

// TestTimerWheel_CancelPreventsFiring covers the round-trip law: schedule,
// cancel, tick invokes no waker.
func TestTimerWheel_CancelPreventsFiring(t *testing.T) {
	w := NewTimerWheel()
	r := newTestReactor(t)
	tk := &task{reactor: r}
	waker := newWaker(tk)

	_, handle := w.Schedule(10*time.Millisecond, waker) // slot 1
	handle.Cancel()

	w.Tick() // drains slot 0
	w.Tick() // drains slot 1, where the cancelled entry lives
	require.False(t, tk.scheduled.Load())
	require.True(t, r.ready.empty())
}

func TestTimerWheel_CursorAdvancesExactlyOnePerTick(t *testing.T) {
	w := NewTimerWheel()
	require.Equal(t, uint64(0), w.cursor.Load())
	w.Tick()
	require.Equal(t, uint64(1), w.cursor.Load())
	w.Tick()
	require.Equal(t, uint64(2), w.cursor.Load())
}

func TestTimerWheel_CursorWrapsAtWheelSize(t *testing.T) {
	w := NewTimerWheel()
	w.cursor.Store(WheelSize - 1)
	w.Tick()
	require.Equal(t, uint64(0), w.cursor.Load())
}

// TestTimerWheel_WrapAroundDelay covers the boundary case where a delay
// exceeds one full revolution: it silently wraps to a nearer slot instead
// of erroring.
func TestTimerWheel_WrapAroundDelay(t *testing.T) {
	w := NewTimerWheel()
	r := newTestReactor(t)
	tk := &task{reactor: r}
	waker := newWaker(tk)

	id, handle := w.Schedule(5*time.Second, waker) // far beyond 2560ms revolution
	require.NotZero(t, id)
	require.NotNil(t, handle)
}

func TestTimerWheel_IDsIncreaseMonotonically(t *testing.T) {
	w := NewTimerWheel()
	r := newTestReactor(t)
	waker := newWaker(&task{reactor: r})

	id1, _ := w.Schedule(time.Millisecond, waker)
	id2, _ := w.Schedule(time.Millisecond, waker)
	require.Less(t, id1, id2)
}

func TestTimerWheel_NegativeDelayClampedToZero(t *testing.T) {
	w := NewTimerWheel()
	r := newTestReactor(t)
	tk := &task{reactor: r}
	waker := newWaker(tk)

	w.Schedule(-time.Second, waker)
	require.Len(t, w.slots[0], 1)

	w.Tick() // clamped to delay 0, so it fires on the very next tick
	require.True(t, tk.scheduled.Load())
}
