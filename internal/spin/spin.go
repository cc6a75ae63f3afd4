// Package spin provides a small test-and-set spinlock.
//
// The registry lock is taken on the fault-interception path, which must
// never park behind a goroutine that is itself stuck in a fault. Critical
// sections guarded by this lock are short, never allocate, and never touch
// protected memory, so bounded spinning followed by a yield is enough.
package spin

import (
	"runtime"
	"sync/atomic"
)

// spinsBeforeYield bounds busy-waiting before handing the P back to the scheduler.
const spinsBeforeYield = 64

// Lock is a spinlock. The zero value is unlocked. It satisfies sync.Locker.
type Lock struct {
	held atomic.Bool
}

// Lock acquires the lock, spinning until it is available.
func (l *Lock) Lock() {
	for spins := 0; !l.TryLock(); spins++ {
		if spins >= spinsBeforeYield {
			runtime.Gosched()
			spins = 0
		}
	}
}

// TryLock acquires the lock if it is free and reports whether it did.
func (l *Lock) TryLock() bool {
	return !l.held.Load() && l.held.CompareAndSwap(false, true)
}

// Unlock releases the lock. Unlocking an unlocked Lock panics.
func (l *Lock) Unlock() {
	if !l.held.CompareAndSwap(true, false) {
		panic("spin: unlock of unlocked lock")
	}
}
