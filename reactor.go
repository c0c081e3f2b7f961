package fastloop

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// defaultPollTimeout bounds how long a single run-loop round blocks in the
// poller before re-checking the ready queue and waker table for
// quiescence. Grounded on original_source/src/reactor.rs's `run`, which
// polls with a 100ms timeout per round.
const defaultPollTimeout = 100 * time.Millisecond

// Reactor owns exactly one Poller and a token->waker slab (spec §4.2). It
// is shared-ownership among all I/O handles, tasks, and the executor.
type Reactor struct {
	poll *poller

	mu   sync.Mutex
	wake *wakerSlab

	ready *readyQueue

	pollTimeout time.Duration
	running     atomic.Bool
}

// NewReactor constructs a reactor with its own Poller. Implementers must
// expose this non-global constructor in addition to Global (spec §9):
// tests that share a global reactor across cases are forbidden by
// construction.
func NewReactor(opts ...ReactorOption) (*Reactor, error) {
	cfg := reactorConfig{
		pollTimeout:     defaultPollTimeout,
		eventBufferSize: defaultEventBufferSize,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		o.apply(&cfg)
	}
	if cfg.logger != nil {
		setLogger(cfg.logger)
	}

	p, err := newPlatformPoller(cfg.eventBufferSize)
	if err != nil {
		return nil, fmt.Errorf("fastloop: new reactor: %w", err)
	}

	return &Reactor{
		poll:        p,
		wake:        newWakerSlab(1024),
		ready:       newReadyQueue(),
		pollTimeout: cfg.pollTimeout,
	}, nil
}

var globalReactor = sync.OnceValue(func() *Reactor {
	r, err := NewReactor()
	if err != nil {
		panic(fmt.Sprintf("fastloop: failed to construct global reactor: %v", err))
	}
	return r
})

// Global returns the lazily constructed process-wide Reactor instance
// (spec §6, `Reactor::global()`).
func Global() *Reactor { return globalReactor() }

// RegisterWaker inserts w into the slab and returns its token, which
// equals the slab's slot index (spec §4.2). Callers then attach the
// returned token to an OS source via the Reactor's poller.
func (r *Reactor) RegisterWaker(w *Waker) Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.wake.insert(w)
}

// Deregister removes the waker at token. Idempotent: deregistering an
// absent slot is a no-op (spec §4.2).
func (r *Reactor) Deregister(token Token) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.wake.remove(token)
}

// poller exposes the underlying OS poller for I/O-handle registration
// (spec §4.2, `poller()`).
func (r *Reactor) poller() *poller { return r.poll }

// Close releases the reactor's OS poller descriptor (the epoll/kqueue fd
// acquired by NewReactor). Callers of the non-global constructor (spec
// §9) are responsible for calling Close once the reactor is no longer
// needed (spec §5, resource acquisition); the global reactor returned by
// Global is intentionally never closed for the lifetime of the process.
func (r *Reactor) Close() error {
	return r.poll.Close()
}

// PollEvents calls the poller once, then invokes the waker registered at
// each ready token, if still present (spec §4.2). The table lock is held
// only for the duration of the snapshot of wakers to invoke, not across
// the wake calls themselves, so an invoked waker re-entering
// RegisterWaker cannot deadlock the reactor.
func (r *Reactor) PollEvents(timeout time.Duration) error {
	events, err := r.poll.Poll(pollTimeoutMillis(timeout))
	if err != nil {
		if err == ErrInterrupted {
			return nil
		}
		return err
	}

	if len(events) == 0 {
		return nil
	}

	wakers := make([]*Waker, 0, len(events))
	r.mu.Lock()
	for _, ev := range events {
		if w := r.wake.get(ev.Token); w != nil {
			wakers = append(wakers, w)
		}
	}
	r.mu.Unlock()

	for _, w := range wakers {
		w.WakeByRef()
	}
	return nil
}

// pollTasks drains the ready queue once, polling each task exactly once
// (spec §4.3). It returns true if any task was polled.
func (r *Reactor) pollTasks() bool {
	batch := r.ready.drain()
	if len(batch) == 0 {
		return false
	}
	for _, t := range batch {
		t.poll()
	}
	return true
}

// quiescent reports whether the reactor has no ready tasks and no live
// wakers: the condition under which Run returns (spec §4.2, §9 open
// question 3 — timer-only liveness does not keep Run alive).
func (r *Reactor) quiescent() bool {
	if !r.ready.empty() {
		return false
	}
	r.mu.Lock()
	n := r.wake.len()
	r.mu.Unlock()
	return n == 0
}

// Run drives the reactor until quiescent: the ready queue is empty and
// the waker table holds no entries (spec §4.2). It blocks the calling
// goroutine.
func (r *Reactor) Run() {
	if !r.running.CompareAndSwap(false, true) {
		return // already running; spec makes no provision for concurrent Run
	}
	defer r.running.Store(false)

	for {
		logger().Debug().Log("fastloop: reactor round")

		if err := r.PollEvents(r.pollTimeout); err != nil {
			logger().Err().Err(err).Log("fastloop: poll_events error")
		}

		r.pollTasks()

		if r.quiescent() {
			return
		}
	}
}

// Spawn submits an asynchronous computation to the global reactor (spec
// §6, `Reactor::spawn`).
func Spawn(future Future) { Global().Spawn(future) }

// Run drives the global reactor until quiescent (spec §6, `Reactor::run`).
func Run() { Global().Run() }
