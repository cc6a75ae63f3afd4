package pagetls

import (
	"runtime"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/joshuapare/pagetls/internal/vmem"
)

// Go runs fn on a new goroutine with fault interception armed.
func (e *Engine) Go(fn func()) {
	go func() {
		defer e.Arm()()
		fn()
	}()
}

// Arm turns memory faults on the calling goroutine into panics and returns
// the handler that classifies them. The returned function must be deferred
// directly, at the top of the goroutine:
//
//	defer engine.Arm()()
//
// When a fault hits a page of any registered region, the goroutine is
// terminated and never resumes. Any other panic, including faults on
// unrelated memory, is re-raised with default fault handling restored.
func (e *Engine) Arm() func() {
	debug.SetPanicOnFault(true)
	return func() {
		if r := recover(); r != nil {
			e.intercept(r)
		}
	}
}

// intercept never returns.
func (e *Engine) intercept(r any) {
	if addr, ok := vmem.FaultAddr(r); ok {
		pageAddr := vmem.PageAlign(addr, e.alloc.PageSize())
		if owner, hit := e.regions.Owns(pageAddr); hit {
			e.terminate(addr, owner)
		}
	}
	debug.SetPanicOnFault(false)
	panic(r)
}

func (e *Engine) terminate(addr uintptr, owner ThreadID) {
	self := e.identify()
	e.terminations.Add(1)
	e.log.Warn("terminating thread: direct access to protected tls page",
		zap.Int64("thread", int64(self)),
		zap.Int64("page_owner", int64(owner)),
		zap.Uintptr("addr", addr),
	)
	if e.opts.ReleaseOnTerminate {
		// The thread may not own a region; nothing to release then.
		_ = e.release(self)
	}
	runtime.Goexit()
}
