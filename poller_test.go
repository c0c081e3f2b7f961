package fastloop

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func socketPair(t *testing.T) (a, b int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	})
	return fds[0], fds[1]
}

func TestPoller_RegisterPollReadable(t *testing.T) {
	p, err := newPoller(defaultEventBufferSize)
	require.NoError(t, err)
	defer p.Close()

	a, b := socketPair(t)
	require.NoError(t, p.Register(a, Token(7), Readable))

	_, err = unix.Write(b, []byte("x"))
	require.NoError(t, err)

	events, err := p.Poll(1000)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, Token(7), events[0].Token)
	require.True(t, events[0].Interest.Has(Readable))
}

func TestPoller_RegisterTwiceErrors(t *testing.T) {
	p, err := newPoller(defaultEventBufferSize)
	require.NoError(t, err)
	defer p.Close()

	a, _ := socketPair(t)
	require.NoError(t, p.Register(a, Token(1), Readable))
	err = p.Register(a, Token(2), Readable)
	require.ErrorIs(t, err, ErrAlreadyRegistered)
}

func TestPoller_DeregisterUnknownErrors(t *testing.T) {
	p, err := newPoller(defaultEventBufferSize)
	require.NoError(t, err)
	defer p.Close()

	err = p.Deregister(12345)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestPoller_ReregisterChangesInterest(t *testing.T) {
	p, err := newPoller(defaultEventBufferSize)
	require.NoError(t, err)
	defer p.Close()

	a, b := socketPair(t)
	require.NoError(t, p.Register(a, Token(3), Readable))
	require.NoError(t, p.Reregister(a, Token(3), Writable))

	_, err = unix.Write(b, []byte("y"))
	require.NoError(t, err)

	events, err := p.Poll(200)
	require.NoError(t, err)
	// a is writable (always true for a fresh connected socket), and has
	// unread data, but Readable is no longer requested: every event must
	// report Writable and not Readable.
	for _, ev := range events {
		require.Equal(t, Token(3), ev.Token)
		require.True(t, ev.Interest.Has(Writable))
		require.False(t, ev.Interest.Has(Readable))
	}
}

func TestPoller_PollAfterCloseErrors(t *testing.T) {
	p, err := newPoller(defaultEventBufferSize)
	require.NoError(t, err)
	require.NoError(t, p.Close())

	_, err = p.Poll(0)
	require.ErrorIs(t, err, ErrPollerClosed)
}

func TestPoller_DoubleCloseIsNoop(t *testing.T) {
	p, err := newPoller(defaultEventBufferSize)
	require.NoError(t, err)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
}

func TestInterest_HasAndString(t *testing.T) {
	require.True(t, (Readable | Writable).Has(Readable))
	require.Equal(t, "rw", (Readable | Writable).String())
	require.Equal(t, "r", Readable.String())
	require.Equal(t, "w", Writable.String())
	require.Equal(t, "none", Interest(0).String())
}

func TestPollTimeoutMillis(t *testing.T) {
	require.Equal(t, -1, pollTimeoutMillis(-1))
	require.Equal(t, 0, pollTimeoutMillis(0))
}
