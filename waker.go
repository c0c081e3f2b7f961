package fastloop

// Waker is a callable capturing a task handle: invoking it schedules the
// task for its next poll.
//
// Spec §4.3 specifies a four-function vtable (clone / wake / wake_by_ref /
// drop) realized over a raw pointer with explicit reference counting, for
// languages without a garbage collector. Spec §9 "Design notes" directs
// GC'd implementations to replace that with "an interface value capturing
// the task handle", collapsing the clone/wake/wake_by_ref/drop discipline
// to "holding one reference per outstanding wake handle" — which is
// exactly what a plain Go pointer already gives for free. Waker keeps the
// four named operations for contract fidelity; Drop is a documented
// no-op, since the garbage collector reclaims the task once every Waker
// referencing it (and the ready queue, and the running poll call) has
// been released.
type Waker struct {
	task *task
}

func newWaker(t *task) *Waker {
	return &Waker{task: t}
}

// Clone returns a new Waker aliasing the same task. Ported from
// original_source/src/waker.rs's `clone`, which increments the Arc
// refcount; here that's simply handing out another GC-visible reference.
func (w *Waker) Clone() *Waker {
	return &Waker{task: w.task}
}

// Wake schedules the task, then releases this waker. In the raw-pointer
// protocol this reconstructs ownership of exactly one reference, calls
// schedule, then drops it (spec §4.3); with a GC'd Waker the only
// observable effect is the schedule call.
func (w *Waker) Wake() {
	w.task.schedule()
}

// WakeByRef schedules the task without consuming this waker — the caller
// may invoke it again later. Calling Wake 10 times before the next
// reactor round still causes exactly one poll, because schedule coalesces
// on the task's already-scheduled flag (spec §8, Scenario B).
func (w *Waker) WakeByRef() {
	w.task.schedule()
}

// Drop releases this waker's reference. No-op under GC; kept so the four
// spec §4.3 operations all have a named counterpart.
func (w *Waker) Drop() {}
