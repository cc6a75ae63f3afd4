//go:build !unix

package vmem

import "os"

// PageSize returns the host page size in bytes.
func PageSize() int { return os.Getpagesize() }

// Map is not available without mmap.
func Map(n int) ([]byte, error) { return nil, ErrUnsupported }

// Protect is not available without mprotect.
func Protect(b []byte, p Prot) error { return ErrUnsupported }

// Unmap is not available without munmap.
func Unmap(b []byte) error { return ErrUnsupported }
