package fastloop

import (
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Listener is a non-blocking TCP listener wrapper bound to one Reactor
// (spec §4.5 "Listener contract").
type Listener struct {
	fd         int
	token      Token
	registered bool
	reactor    *Reactor
	addr       *net.TCPAddr
}

// Bind creates a non-blocking TCP listener on addr (spec §4.5, §6
// `FastListener::bind`).
func Bind(addr string, reactor *Reactor) (*Listener, error) {
	tcpAddr, err := resolveTCPAddr(addr)
	if err != nil {
		return nil, err
	}
	sa, family, err := toSockaddr(tcpAddr)
	if err != nil {
		return nil, err
	}

	fd, err := newNonblockingSocket(family)
	if err != nil {
		return nil, err
	}

	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("fastloop: setsockopt reuseaddr: %w", err)
	}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("fastloop: bind %s: %w", addr, err)
	}
	const backlog = 1024
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("fastloop: listen %s: %w", addr, err)
	}

	bound, err := localAddr(fd)
	if err != nil {
		bound = tcpAddr
	}

	return &Listener{fd: fd, reactor: reactor, addr: bound}, nil
}

// Addr returns the address the listener is bound to.
func (l *Listener) Addr() net.Addr { return l.addr }

// Register obtains a token from the reactor and attaches the listener's
// fd to the poller with readable interest (spec §4.5).
func (l *Listener) Register(waker *Waker) error {
	if l.registered {
		return fmt.Errorf("fastloop: listener register: %w", ErrAlreadyRegistered)
	}
	token := l.reactor.RegisterWaker(waker)
	if err := l.reactor.poller().Register(l.fd, token, Readable); err != nil {
		l.reactor.Deregister(token)
		return err
	}
	l.token = token
	l.registered = true
	return nil
}

// Deregister removes the listener from the poller and waker table.
// Idempotent (spec §4.2).
func (l *Listener) Deregister() error {
	if !l.registered {
		return nil
	}
	err := l.reactor.poller().Deregister(l.fd)
	l.reactor.Deregister(l.token)
	l.registered = false
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// TryAccept accepts one pending connection; call it in a loop until
// ErrWouldBlock to accept all that are available (spec §4.5). The returned stream is already
// non-blocking and associated with the same reactor, but not yet
// registered -- the caller registers it when first awaited.
func (l *Listener) TryAccept() (*Stream, net.Addr, error) {
	fd, sa, err := unix.Accept(l.fd)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, nil, ErrWouldBlock
		}
		return nil, nil, fmt.Errorf("fastloop: accept: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return nil, nil, fmt.Errorf("fastloop: accept set nonblock: %w", err)
	}

	peer, err := fromSockaddr(sa)
	if err != nil {
		_ = unix.Close(fd)
		return nil, nil, err
	}

	return &Stream{fd: fd, reactor: l.reactor}, peer, nil
}

// Close deregisters (if still registered) and closes the underlying
// socket. Deregistration must occur before the OS source is closed (spec
// §3 "I/O handle" lifecycle).
func (l *Listener) Close() error {
	if err := l.Deregister(); err != nil {
		return err
	}
	return unix.Close(l.fd)
}

func localAddr(fd int) (*net.TCPAddr, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return nil, err
	}
	addr, err := fromSockaddr(sa)
	if err != nil {
		return nil, err
	}
	tcpAddr, _ := addr.(*net.TCPAddr)
	return tcpAddr, nil
}
