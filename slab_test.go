package fastloop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWakerSlab_InsertGet(t *testing.T) {
	s := newWakerSlab(4)
	w1 := &Waker{}
	w2 := &Waker{}

	t1 := s.insert(w1)
	t2 := s.insert(w2)

	require.NotEqual(t, t1, t2)
	require.Same(t, w1, s.get(t1))
	require.Same(t, w2, s.get(t2))
	require.Equal(t, 2, s.len())
}

func TestWakerSlab_RemoveReusesSlot(t *testing.T) {
	s := newWakerSlab(4)
	w1 := &Waker{}
	w2 := &Waker{}

	t1 := s.insert(w1)
	s.remove(t1)
	require.Equal(t, 0, s.len())
	require.Nil(t, s.get(t1))

	t2 := s.insert(w2)
	require.Equal(t, t1, t2, "freed slot should be reused")
	require.Same(t, w2, s.get(t2))
}

func TestWakerSlab_RemoveIdempotent(t *testing.T) {
	s := newWakerSlab(2)
	require.NotPanics(t, func() {
		s.remove(Token(0))
		s.remove(Token(999))
	})
}

func TestWakerSlab_GetOutOfRange(t *testing.T) {
	s := newWakerSlab(2)
	require.Nil(t, s.get(Token(42)))
}
