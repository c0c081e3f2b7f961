package fastloop

import (
	"sync"
	"sync/atomic"
	"time"
)

// WheelSize is the number of slots in the timer wheel (spec §3, §4.4).
const WheelSize = 256

// SlotDuration is the time each slot represents; the wheel revolves fully
// every WheelSize*SlotDuration (2560ms).
const SlotDuration = 10 * time.Millisecond

// TimerID uniquely identifies a scheduled timer entry. IDs strictly
// increase (spec §3).
type TimerID uint64

// timerEntry is one pending wakeup, living in exactly one slot queue
// until it fires or the slot is drained (spec §3 "Timer entry").
type timerEntry struct {
	id        TimerID
	waker     *Waker
	cancelled atomic.Bool
}

// TimerHandle lets a caller cancel a previously scheduled timer.
type TimerHandle struct {
	entry *timerEntry
}

// Cancel marks the entry cancelled; it remains in its slot until that
// slot ticks, but its waker will never fire (spec §4.4, §8 round-trip
// law: "schedule -> cancel -> tick invokes no waker").
func (h *TimerHandle) Cancel() {
	h.entry.cancelled.Store(true)
}

// TimerWheel is a fixed-size ring of slots, each a queue of pending
// entries; a monotonic cursor advances one slot per tick (spec §4.4).
//
// Ported from original_source/src/timer.rs's TimerWheel/TimerEntry. Each
// slot there is a lock-free crossbeam::queue::SegQueue; the pack supplies
// no Go lock-free MPSC queue for this purpose, so each slot here is a
// mutex-guarded slice instead -- the direct, justified substitution (see
// DESIGN.md). The cursor itself keeps the original's lock-free CAS
// discipline.
type TimerWheel struct {
	cursor atomic.Uint64
	nextID atomic.Uint64

	slotMu [WheelSize]sync.Mutex
	slots  [WheelSize][]*timerEntry
}

// NewTimerWheel constructs an empty wheel with the cursor at slot 0 and
// the id counter starting at 1 (0 is reserved as a null marker).
func NewTimerWheel() *TimerWheel {
	w := &TimerWheel{}
	w.nextID.Store(1)
	return w
}

// Schedule places waker in the slot `(cursor + ticks) mod WheelSize`,
// where ticks = delay / SlotDuration. Delays exceeding one full
// revolution (2560ms) silently wrap (spec §4.4, §8 boundary behavior);
// callers needing longer delays must layer hierarchical wheels above
// this core.
func (w *TimerWheel) Schedule(delay time.Duration, waker *Waker) (TimerID, *TimerHandle) {
	if delay < 0 {
		delay = 0
	}
	ticks := uint64(delay / SlotDuration)
	current := w.cursor.Load()
	slot := (current + ticks) % WheelSize

	entry := &timerEntry{
		id:    TimerID(w.nextID.Add(1) - 1),
		waker: waker,
	}

	w.slotMu[slot].Lock()
	w.slots[slot] = append(w.slots[slot], entry)
	w.slotMu[slot].Unlock()

	if ticks >= WheelSize {
		logger().Debug().
			Uint64("ticks", ticks).
			Log("fastloop: timer delay exceeds one revolution, wrapped to a nearer slot")
	}

	return entry.id, &TimerHandle{entry: entry}
}

// Tick advances the cursor by exactly one slot (compare-and-swap; exactly
// one successful advance per call), then drains the slot the cursor held
// *before* advancing, firing each entry whose cancelled flag is false
// (spec §4.4, §8: "scheduling a timer with delay 0 fires on the next
// tick"). Schedule places entries using the pre-advance cursor value, so
// draining that same pre-advance slot here -- matching
// original_source/src/timer.rs's `tick`, which drains at the cursor's
// value from before its `fetch_update` -- is what makes a ticks==0 entry
// (any delay in [0, SlotDuration), including delay 0) fire on the very
// next Tick instead of a full revolution later.
func (w *TimerWheel) Tick() {
	var slot uint64
	for {
		current := w.cursor.Load()
		next := (current + 1) % WheelSize
		if w.cursor.CompareAndSwap(current, next) {
			slot = current
			break
		}
	}

	w.slotMu[slot].Lock()
	entries := w.slots[slot]
	w.slots[slot] = nil
	w.slotMu[slot].Unlock()

	for _, entry := range entries {
		if !entry.cancelled.Load() {
			entry.waker.WakeByRef()
		}
	}
}
