//go:build linux

package fastloop

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// poller wraps epoll for scalable, level-triggered readiness polling.
//
// A reusable, fixed-capacity event buffer is cleared before each poll and
// drained into the caller's observable sequence (spec §4.1). No EPOLLET
// flag is ever set: this core assumes level-triggered semantics so that
// partial drains never lose events.
type poller struct {
	epfd int

	mu       sync.Mutex // guards events and closed; only one poll call active at a time
	events   []unix.EpollEvent
	closed   bool
	tokens   map[int]Token // fd -> token, for double-registration checks
	tokensMu sync.Mutex
}

func newPoller(bufSize int) (*poller, error) {
	if bufSize <= 0 {
		bufSize = defaultEventBufferSize
	}
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("fastloop: epoll_create1: %w", err)
	}
	return &poller{
		epfd:   epfd,
		events: make([]unix.EpollEvent, bufSize),
		tokens: make(map[int]Token),
	}, nil
}

// Register attaches fd under token with the given interest.
func (p *poller) Register(fd int, token Token, interest Interest) error {
	p.tokensMu.Lock()
	if _, ok := p.tokens[fd]; ok {
		p.tokensMu.Unlock()
		return fmt.Errorf("fastloop: register fd %d: %w", fd, ErrAlreadyRegistered)
	}
	p.tokens[fd] = token
	p.tokensMu.Unlock()

	ev := unix.EpollEvent{
		Events: interestToEpoll(interest),
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		p.tokensMu.Lock()
		delete(p.tokens, fd)
		p.tokensMu.Unlock()
		return fmt.Errorf("fastloop: epoll_ctl add fd %d: %w", fd, err)
	}
	return nil
}

// Reregister changes the interest for an already-registered fd.
func (p *poller) Reregister(fd int, token Token, interest Interest) error {
	p.tokensMu.Lock()
	if _, ok := p.tokens[fd]; !ok {
		p.tokensMu.Unlock()
		return fmt.Errorf("fastloop: reregister fd %d: %w", fd, ErrNotFound)
	}
	p.tokens[fd] = token
	p.tokensMu.Unlock()

	ev := unix.EpollEvent{
		Events: interestToEpoll(interest),
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev); err != nil {
		return fmt.Errorf("fastloop: epoll_ctl mod fd %d: %w", fd, err)
	}
	return nil
}

// Deregister detaches fd. Deregistering an absent fd is an error; callers
// (the Reactor, I/O handles) treat that as a no-op per spec §4.1.
func (p *poller) Deregister(fd int) error {
	p.tokensMu.Lock()
	if _, ok := p.tokens[fd]; !ok {
		p.tokensMu.Unlock()
		return fmt.Errorf("fastloop: deregister fd %d: %w", fd, ErrNotFound)
	}
	delete(p.tokens, fd)
	p.tokensMu.Unlock()

	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil {
		return fmt.Errorf("fastloop: epoll_ctl del fd %d: %w", fd, err)
	}
	return nil
}

// Poll blocks up to timeoutMillis (negative = indefinite) for readiness,
// returning the batch of (token, readiness) events. A spurious wakeup may
// return an empty batch. EINTR is reported as ErrInterrupted; callers
// retry.
func (p *poller) Poll(timeoutMillis int) ([]Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPollerClosed
	}

	n, err := unix.EpollWait(p.epfd, p.events, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return nil, ErrInterrupted
		}
		return nil, fmt.Errorf("fastloop: epoll_wait: %w", err)
	}

	out := make([]Event, 0, n)
	p.tokensMu.Lock()
	for i := 0; i < n; i++ {
		raw := p.events[i]
		fd := int(raw.Fd)
		token, ok := p.tokens[fd]
		if !ok {
			// The source was deregistered between epoll_wait returning and
			// us reading it back; drop the stale event.
			continue
		}
		out = append(out, Event{Token: token, Interest: epollToInterest(raw.Events)})
	}
	p.tokensMu.Unlock()

	return out, nil
}

// Close releases the epoll instance. Deregister all sources before calling
// this (spec §5, "resource acquisition").
func (p *poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.epfd)
}

func interestToEpoll(interest Interest) uint32 {
	var events uint32
	if interest.Has(Readable) {
		events |= unix.EPOLLIN
	}
	if interest.Has(Writable) {
		events |= unix.EPOLLOUT
	}
	events |= unix.EPOLLERR | unix.EPOLLHUP
	return events
}

func epollToInterest(events uint32) Interest {
	var interest Interest
	if events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		interest |= Readable
	}
	if events&(unix.EPOLLOUT|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
		interest |= Writable
	}
	return interest
}
