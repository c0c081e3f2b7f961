package fastloop

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// Stream is a non-blocking TCP stream wrapper bound to one Reactor (spec
// §4.5 "Stream contract"). It holds a reactor reference, a token (once
// registered), and translates readiness edges into wake invocations via
// the Reactor's poller.
type Stream struct {
	fd         int
	token      Token
	registered bool
	reactor    *Reactor
}

// Connect creates a non-blocking stream toward addr and returns
// immediately even if the TCP handshake is still pending (spec §4.5, §6
// `FastSocket::connect`).
func Connect(addr string, reactor *Reactor) (*Stream, error) {
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

	if err := unix.Connect(fd, sa); err != nil && err != unix.EINPROGRESS {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("fastloop: connect %s: %w", addr, err)
	}

	return &Stream{fd: fd, reactor: reactor}, nil
}

// Register obtains a token from the reactor and attaches the stream's fd
// to the poller under the given interest (spec §4.5).
func (s *Stream) Register(interest Interest, waker *Waker) error {
	if s.registered {
		return fmt.Errorf("fastloop: stream register: %w", ErrAlreadyRegistered)
	}
	token := s.reactor.RegisterWaker(waker)
	if err := s.reactor.poller().Register(s.fd, token, interest); err != nil {
		s.reactor.Deregister(token)
		return err
	}
	s.token = token
	s.registered = true
	return nil
}

// Reregister changes the interest for an already-registered stream
// without changing its token (spec §4.5).
func (s *Stream) Reregister(interest Interest) error {
	if !s.registered {
		return fmt.Errorf("fastloop: stream reregister: %w", ErrNotFound)
	}
	return s.reactor.poller().Reregister(s.fd, s.token, interest)
}

// Deregister removes the stream from the poller and waker table.
// Idempotent (spec §4.2).
func (s *Stream) Deregister() error {
	if !s.registered {
		return nil
	}
	err := s.reactor.poller().Deregister(s.fd)
	s.reactor.Deregister(s.token)
	s.registered = false
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}

// TryRead attempts a non-blocking read into buf. Use in a loop until
// ErrWouldBlock. A read of 0 bytes with a nil error means the peer closed
// the connection (EOF), not WouldBlock (spec §8 boundary behavior).
func (s *Stream) TryRead(buf []byte) (int, error) {
	n, err := unix.Read(s.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ErrWouldBlock
		}
		return 0, fmt.Errorf("fastloop: read: %w", err)
	}
	return n, nil
}

// TryWrite attempts a non-blocking write of buf. Use in a loop until
// ErrWouldBlock.
func (s *Stream) TryWrite(buf []byte) (int, error) {
	n, err := unix.Write(s.fd, buf)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, ErrWouldBlock
		}
		return 0, fmt.Errorf("fastloop: write: %w", err)
	}
	return n, nil
}

// Close deregisters (if still registered) and closes the underlying
// socket.
func (s *Stream) Close() error {
	if err := s.Deregister(); err != nil {
		return err
	}
	return unix.Close(s.fd)
}
