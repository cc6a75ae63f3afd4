// Package vmem wraps the host virtual-memory primitives the TLS engine is
// built on: anonymous page mappings, protection changes, unmapping, and a
// fault-tolerant probe that reports whether a mapping is currently readable.
package vmem

import "errors"

// Prot is the access level of a mapping.
type Prot int

const (
	// ProtNone makes every access fault.
	ProtNone Prot = iota
	// ProtReadWrite permits ordinary loads and stores.
	ProtReadWrite
)

func (p Prot) String() string {
	switch p {
	case ProtNone:
		return "none"
	case ProtReadWrite:
		return "read-write"
	default:
		return "unknown"
	}
}

// ErrUnsupported is returned on platforms without mmap/mprotect.
var ErrUnsupported = errors.New("vmem: page protection not supported on this platform")

// PageAlign rounds addr down to the start of its page.
func PageAlign(addr uintptr, pageSize int) uintptr {
	return addr &^ uintptr(pageSize-1)
}
