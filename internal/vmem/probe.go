package vmem

import (
	"fmt"
	"runtime/debug"
)

// FaultError reports a memory fault caught while probing a mapping.
type FaultError struct {
	Addr uintptr // faulting address, zero if the runtime did not report one
	Err  error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("vmem: fault at 0x%x: %v", e.Addr, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

// FaultAddr extracts the faulting address from a value recovered after a
// memory fault with panic-on-fault enabled.
func FaultAddr(r any) (uintptr, bool) {
	if a, ok := r.(interface{ Addr() uintptr }); ok {
		return a.Addr(), true
	}
	return 0, false
}

// sink keeps probe loads from being optimised away.
var sink byte

// Probe touches one byte per page of b and reports whether every page is
// readable. A fault is converted to a *FaultError instead of crashing.
func Probe(b []byte) (retErr error) {
	if len(b) == 0 {
		return nil
	}

	old := debug.SetPanicOnFault(true)
	defer debug.SetPanicOnFault(old)

	defer func() {
		if r := recover(); r != nil {
			fe := &FaultError{}
			fe.Addr, _ = FaultAddr(r)
			if err, ok := r.(error); ok {
				fe.Err = err
			} else {
				fe.Err = fmt.Errorf("%v", r)
			}
			retErr = fe
		}
	}()

	step := PageSize()
	var s byte
	for i := 0; i < len(b); i += step {
		s ^= b[i]
	}
	s ^= b[len(b)-1]
	sink = s
	return nil
}
