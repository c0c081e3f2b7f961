//go:build darwin

package fastloop

import (
	"fmt"
	"sync"

	"golang.org/x/sys/unix"
)

// poller wraps kqueue for scalable, level-triggered readiness polling. No
// EV_CLEAR flag is ever set, matching poller_linux.go's level-triggered
// contract (spec §4.1).
type poller struct {
	kq int

	mu     sync.Mutex
	events []unix.Kevent_t
	closed bool

	tokensMu sync.Mutex
	tokens   map[int]Token
}

func newPoller(bufSize int) (*poller, error) {
	if bufSize <= 0 {
		bufSize = defaultEventBufferSize
	}
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, fmt.Errorf("fastloop: kqueue: %w", err)
	}
	unix.CloseOnExec(kq)
	return &poller{
		kq:     kq,
		events: make([]unix.Kevent_t, bufSize),
		tokens: make(map[int]Token),
	}, nil
}

func (p *poller) Register(fd int, token Token, interest Interest) error {
	p.tokensMu.Lock()
	if _, ok := p.tokens[fd]; ok {
		p.tokensMu.Unlock()
		return fmt.Errorf("fastloop: register fd %d: %w", fd, ErrAlreadyRegistered)
	}
	p.tokens[fd] = token
	p.tokensMu.Unlock()

	changes := interestToKevents(fd, interest, unix.EV_ADD|unix.EV_ENABLE)
	if len(changes) > 0 {
		if _, err := unix.Kevent(p.kq, changes, nil, nil); err != nil {
			p.tokensMu.Lock()
			delete(p.tokens, fd)
			p.tokensMu.Unlock()
			return fmt.Errorf("fastloop: kevent add fd %d: %w", fd, err)
		}
	}
	return nil
}

func (p *poller) Reregister(fd int, token Token, interest Interest) error {
	p.tokensMu.Lock()
	if _, ok := p.tokens[fd]; !ok {
		p.tokensMu.Unlock()
		return fmt.Errorf("fastloop: reregister fd %d: %w", fd, ErrNotFound)
	}
	p.tokens[fd] = token
	p.tokensMu.Unlock()

	// kqueue has no single "modify interest" call; reassert both filters so
	// unwanted ones are removed and wanted ones (re)enabled.
	del := interestToKevents(fd, Readable|Writable, unix.EV_DELETE)
	_, _ = unix.Kevent(p.kq, del, nil, nil) // best-effort; filters that were never added are no-ops

	add := interestToKevents(fd, interest, unix.EV_ADD|unix.EV_ENABLE)
	if len(add) > 0 {
		if _, err := unix.Kevent(p.kq, add, nil, nil); err != nil {
			return fmt.Errorf("fastloop: kevent mod fd %d: %w", fd, err)
		}
	}
	return nil
}

func (p *poller) Deregister(fd int) error {
	p.tokensMu.Lock()
	if _, ok := p.tokens[fd]; !ok {
		p.tokensMu.Unlock()
		return fmt.Errorf("fastloop: deregister fd %d: %w", fd, ErrNotFound)
	}
	delete(p.tokens, fd)
	p.tokensMu.Unlock()

	del := interestToKevents(fd, Readable|Writable, unix.EV_DELETE)
	_, _ = unix.Kevent(p.kq, del, nil, nil) // ignore errors on delete, matches teacher's UnregisterFD
	return nil
}

func (p *poller) Poll(timeoutMillis int) ([]Event, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPollerClosed
	}

	var ts *unix.Timespec
	if timeoutMillis >= 0 {
		ts = &unix.Timespec{
			Sec:  int64(timeoutMillis / 1000),
			Nsec: int64((timeoutMillis % 1000) * 1000000),
		}
	}

	n, err := unix.Kevent(p.kq, nil, p.events, ts)
	if err != nil {
		if err == unix.EINTR {
			return nil, ErrInterrupted
		}
		return nil, fmt.Errorf("fastloop: kevent wait: %w", err)
	}

	out := make([]Event, 0, n)
	p.tokensMu.Lock()
	for i := 0; i < n; i++ {
		kev := p.events[i]
		fd := int(kev.Ident)
		token, ok := p.tokens[fd]
		if !ok {
			continue
		}
		out = append(out, Event{Token: token, Interest: keventToInterest(&kev)})
	}
	p.tokensMu.Unlock()

	return out, nil
}

func (p *poller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.kq)
}

func interestToKevents(fd int, interest Interest, flags uint16) []unix.Kevent_t {
	var kevents []unix.Kevent_t
	if interest.Has(Readable) {
		kevents = append(kevents, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_READ,
			Flags:  flags,
		})
	}
	if interest.Has(Writable) {
		kevents = append(kevents, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: unix.EVFILT_WRITE,
			Flags:  flags,
		})
	}
	return kevents
}

func keventToInterest(kev *unix.Kevent_t) Interest {
	var interest Interest
	switch kev.Filter {
	case unix.EVFILT_READ:
		interest |= Readable
	case unix.EVFILT_WRITE:
		interest |= Writable
	}
	if kev.Flags&unix.EV_EOF != 0 {
		interest |= Readable | Writable
	}
	return interest
}
