// Package fastloop implements the core of a minimal asynchronous I/O
// runtime: a single-process event loop coupling an OS readiness poller, a
// token-indexed wakeup table, a cooperative task executor, and a timer
// wheel.
//
// # Architecture
//
// Four subsystems, leaves first:
//
//   - The poller wraps the OS readiness primitive (epoll on Linux, kqueue on
//     Darwin/BSD) behind register/reregister/deregister/poll.
//   - [Reactor] owns exactly one Poller and a token→waker slab; it drives
//     the run loop that dispatches readiness events to wakers and drains
//     the task executor's ready queue.
//   - The task executor ([Spawn], [Future]) cooperatively polls
//     asynchronous computations under a custom wakeup protocol ([Waker]).
//   - [TimerWheel] schedules delayed wakeups in O(1) amortized time using a
//     256-slot ring advanced one slot per tick.
//
// [Stream] and [Listener] are the non-blocking TCP I/O handles that bridge
// application code to the reactor's registration table.
//
// # Usage
//
//	reactor, err := fastloop.NewReactor()
//	reactor.Spawn(fastloop.FutureFunc(func(ctx *fastloop.Context) fastloop.Poll {
//	    // ... async body, returning PollPending or PollReady ...
//	    return fastloop.PollReady
//	}))
//	reactor.Run()
//
// # Scope
//
// This package is the core only: application-level protocol parsing,
// connection lifecycle management above the socket handle, configuration,
// and higher-level combinators are external collaborators that consume the
// core through the spawn contract and the I/O handle contract.
package fastloop
