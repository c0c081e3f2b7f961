package fastloop

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// resolveTCPAddr parses a "host:port" address, the same format accepted
// throughout the net package.
func resolveTCPAddr(addr string) (*net.TCPAddr, error) {
	tcpAddr, err := net.ResolveTCPAddr("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("fastloop: resolve addr %q: %w", addr, err)
	}
	return tcpAddr, nil
}

// toSockaddr converts a resolved *net.TCPAddr into the raw unix.Sockaddr
// and address family needed to call unix.Socket/Bind/Connect directly,
// bypassing the net package's own fd ownership (see SPEC_FULL.md).
func toSockaddr(a *net.TCPAddr) (unix.Sockaddr, int, error) {
	ip4 := a.IP.To4()
	if ip4 != nil {
		var addr [4]byte
		copy(addr[:], ip4)
		return &unix.SockaddrInet4{Port: a.Port, Addr: addr}, unix.AF_INET, nil
	}
	ip16 := a.IP.To16()
	if ip16 != nil {
		var addr [16]byte
		copy(addr[:], ip16)
		return &unix.SockaddrInet6{Port: a.Port, Addr: addr}, unix.AF_INET6, nil
	}
	return nil, 0, fmt.Errorf("fastloop: unsupported address %v", a)
}

// fromSockaddr converts a raw unix.Sockaddr (as returned by accept) back
// into a net.Addr for the caller.
func fromSockaddr(sa unix.Sockaddr) (net.Addr, error) {
	switch v := sa.(type) {
	case *unix.SockaddrInet4:
		return &net.TCPAddr{IP: append([]byte(nil), v.Addr[:]...), Port: v.Port}, nil
	case *unix.SockaddrInet6:
		return &net.TCPAddr{IP: append([]byte(nil), v.Addr[:]...), Port: v.Port}, nil
	default:
		return nil, fmt.Errorf("fastloop: unsupported sockaddr type %T", sa)
	}
}

// newNonblockingSocket creates a non-blocking TCP socket of the given
// address family.
func newNonblockingSocket(family int) (int, error) {
	fd, err := unix.Socket(family, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, fmt.Errorf("fastloop: socket: %w", err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, fmt.Errorf("fastloop: set nonblock: %w", err)
	}
	return fd, nil
}
