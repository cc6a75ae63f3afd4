// Package types defines the shared identifiers, statistics, and typed
// errors of the page-backed TLS engine.
//
// Design goals:
//   - Typed errors with stable categories (invalid size, already exists,
//     no such region, out of bounds, protection) so callers can branch on
//     intent rather than text.
//   - Small, copyable values (ThreadID, Stats) that are safe to pass
//     between goroutines.
//
// This package has no dependencies beyond the standard library.
package types
