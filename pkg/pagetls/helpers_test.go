package pagetls

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sink keeps test loads from protected memory from being optimised away.
var sink byte

// thread is a goroutine with a stable identity that runs calls in order.
type thread struct {
	id    ThreadID
	calls chan func()
	done  chan struct{}
}

func startThread(t *testing.T) *thread {
	t.Helper()
	th := &thread{calls: make(chan func()), done: make(chan struct{})}
	ready := make(chan ThreadID)
	go func() {
		defer close(th.done)
		ready <- Self()
		for fn := range th.calls {
			fn()
		}
	}()
	th.id = <-ready
	t.Cleanup(th.stop)
	return th
}

// do runs fn on the thread and waits for it.
func (th *thread) do(fn func()) {
	finished := make(chan struct{})
	th.calls <- func() {
		defer close(finished)
		fn()
	}
	<-finished
}

func (th *thread) stop() {
	select {
	case <-th.done:
	default:
		close(th.calls)
		<-th.done
	}
}

// newEngine returns an isolated engine that must end the test with no
// registered regions and no mapped pages.
func newEngine(t *testing.T, opts Options) *Engine {
	t.Helper()
	e := New(opts)
	t.Cleanup(func() {
		st := e.Stats()
		require.Zero(t, st.Regions, "regions left registered")
		require.Zero(t, st.LivePages, "pages leaked")
	})
	return e
}
