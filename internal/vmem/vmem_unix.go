//go:build unix

package vmem

import (
	"fmt"

	"golang.org/x/sys/unix"
)

var pageSize = unix.Getpagesize()

// PageSize returns the host page size in bytes.
func PageSize() int { return pageSize }

// Map creates an anonymous private mapping of n bytes with no access
// permitted. n is rounded up to a whole number of pages by the kernel.
func Map(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("vmem: invalid mapping length %d", n)
	}
	mem, err := unix.Mmap(-1, 0, n, unix.PROT_NONE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("vmem: mmap %d bytes: %w", n, err)
	}
	return mem, nil
}

// Protect changes the access level of a mapping returned by Map.
func Protect(b []byte, p Prot) error {
	if len(b) == 0 {
		return nil
	}
	prot := unix.PROT_NONE
	if p == ProtReadWrite {
		prot = unix.PROT_READ | unix.PROT_WRITE
	}
	if err := unix.Mprotect(b, prot); err != nil {
		return fmt.Errorf("vmem: mprotect(%s): %w", p, err)
	}
	return nil
}

// Unmap releases a mapping returned by Map.
func Unmap(b []byte) error {
	if len(b) == 0 {
		return nil
	}
	if err := unix.Munmap(b); err != nil {
		return fmt.Errorf("vmem: munmap: %w", err)
	}
	return nil
}
