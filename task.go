package fastloop

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Poll is the result of polling a Future once.
type Poll int

const (
	// PollPending means the future has not completed; it has arranged its
	// own wakeup (via I/O registration or a timer) and must not be polled
	// again until woken.
	PollPending Poll = iota
	// PollReady means the future has completed.
	PollReady
)

func (p Poll) String() string {
	if p == PollReady {
		return "ready"
	}
	return "pending"
}

// Context is passed to a Future's Poll method. It exposes the Waker tied
// to the polling task, which the future must register with the reactor
// (directly, or via a Stream/Listener/TimerWheel) before returning
// PollPending.
type Context struct {
	waker *Waker
}

// Waker returns the waker for the task currently being polled.
func (c *Context) Waker() *Waker { return c.waker }

// Future is the polymorphic capability every task body implements: poll
// once, returning whether it is done. Exactly one concrete type is stored
// per task (spec §9, "dynamic dispatch of futures").
type Future interface {
	Poll(ctx *Context) Poll
}

// FutureFunc adapts a plain function to the Future interface, for bodies
// with no state beyond what they close over.
type FutureFunc func(ctx *Context) Poll

// Poll implements Future.
func (f FutureFunc) Poll(ctx *Context) Poll { return f(ctx) }

// task is a pinned asynchronous computation, with a scheduled flag and a
// back-reference to its owning reactor (spec §3 "Task").
type task struct {
	future Future

	// scheduled is true iff the task is (or is about to be) referenced by
	// the ready queue. Swapped with acquire-release ordering so that
	// writes made before a wake happen-before the next poll (spec §5).
	scheduled atomic.Bool

	// done marks a completed task so that any further wake (from a waker
	// that outlived completion) is a harmless no-op (spec §4.3 "Polling
	// contract").
	done atomic.Bool

	// pollMu serializes concurrent calls to poll, which should only ever
	// happen from the single run-loop goroutine, but guards against a
	// caller misusing the API directly.
	pollMu sync.Mutex

	reactor *Reactor
}

// Spawn creates a task wrapping future, marks it scheduled, and pushes it
// onto the reactor's ready queue (spec §4.3 "spawn").
func (r *Reactor) Spawn(future Future) {
	t := &task{future: future, reactor: r}
	t.scheduled.Store(true)
	r.ready.push(t)
}

// poll clears the scheduled flag (acquire ordering), then polls the
// future once. If the task is already done, this is a harmless early
// return (spec §4.3). Panics in the future body are recovered and logged,
// isolating the failure to this task (spec §7).
func (t *task) poll() {
	t.pollMu.Lock()
	defer t.pollMu.Unlock()

	if !t.scheduled.Swap(false) {
		return
	}
	if t.done.Load() {
		return
	}

	w := newWaker(t)
	ctx := &Context{waker: w}

	result := t.runFuture(ctx)
	if result == PollReady {
		t.done.Store(true)
	}
}

// runFuture polls the future body, recovering any panic so that it cannot
// take down the reactor's run loop (spec §7: "Panics in task bodies are
// isolated to the offending task").
func (t *task) runFuture(ctx *Context) (result Poll) {
	defer func() {
		if r := recover(); r != nil {
			logger().Err().
				Any("panic", r).
				Log("fastloop: recovered panic from task future")
			result = PollReady
		}
	}()
	return t.future.Poll(ctx)
}

// schedule transitions the scheduled flag false->true (atomic swap,
// acq-rel) and, only on that transition, pushes the task onto the ready
// queue. Two consecutive schedules between polls therefore coalesce into
// exactly one poll (spec §8 round-trip law).
func (t *task) schedule() {
	if !t.scheduled.Swap(true) {
		t.reactor.ready.push(t)
	}
}

// String aids debugging/log output.
func (t *task) String() string {
	return fmt.Sprintf("task{scheduled=%v done=%v}", t.scheduled.Load(), t.done.Load())
}
