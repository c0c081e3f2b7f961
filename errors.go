package fastloop

import "errors"

// Sentinel errors for the poller/reactor error taxonomy. Callers should use
// errors.Is against these rather than comparing error values directly, since
// all of them may be wrapped with additional context.
var (
	// ErrAlreadyRegistered is returned by register when the source already
	// holds a registration. Indicates a caller bug.
	ErrAlreadyRegistered = errors.New("fastloop: source already registered")

	// ErrNotFound is returned by reregister/deregister when the source (or
	// token) is absent. deregister treats this as a no-op; reregister treats
	// it as fatal.
	ErrNotFound = errors.New("fastloop: source not registered")

	// ErrInterrupted indicates a retryable interruption of a blocking poll
	// call (EINTR). Callers that see this from the poller's Poll should
	// retry.
	ErrInterrupted = errors.New("fastloop: poll interrupted")

	// ErrPollerClosed is returned once a Poller has been closed.
	ErrPollerClosed = errors.New("fastloop: poller closed")

	// ErrReactorClosed names the closed-reactor condition. No operation in
	// this package returns it: after Reactor.Close, polling reports
	// ErrPollerClosed instead.
	ErrReactorClosed = errors.New("fastloop: reactor closed")

	// ErrWouldBlock is not a failure: it signals that a non-blocking I/O
	// operation has no data/capacity available right now. Per spec §7 it
	// is never logged; a task body observing it must have registered (or
	// re-registered) an appropriate waker before returning PollPending.
	ErrWouldBlock = errors.New("fastloop: would block")
)
