package fastloop

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWaker_WakeSchedulesTask(t *testing.T) {
	r := newTestReactor(t)
	tk := &task{reactor: r}
	w := newWaker(tk)

	require.False(t, tk.scheduled.Load())
	w.Wake()
	require.True(t, tk.scheduled.Load())
	require.False(t, r.ready.empty())
}

func TestWaker_CloneAliasesSameTask(t *testing.T) {
	r := newTestReactor(t)
	tk := &task{reactor: r}
	w := newWaker(tk)
	clone := w.Clone()

	require.Same(t, tk, clone.task)
}

func TestWaker_DropIsNoop(t *testing.T) {
	r := newTestReactor(t)
	tk := &task{reactor: r}
	w := newWaker(tk)
	require.NotPanics(t, w.Drop)
}
