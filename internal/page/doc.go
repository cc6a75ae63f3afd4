// Package page implements reference-counted, page-sized backing storage and
// the protection controller that toggles it between "no access" and
// "read-write".
//
// # Pages
//
// Every Page is one anonymous private mapping of exactly one host page. It
// starts with no access permitted and a reference count of 1. The count is
// the lifetime authority: a Page is unmapped when, and only when, its count
// drops to zero.
//
// # Handles
//
// Pages are never referenced by bare pointer outside this package's
// bookkeeping. A Ref is a counted handle:
//
//	r, err := alloc.Allocate() // refs = 1
//	shared := r.Clone()        // refs = 2
//	shared.Release()           // refs = 1
//	r.Release()                // refs = 0, page unmapped
//	r.Release()                // no-op, returns false
//
// Release clears the handle, so one logical reference can never be released
// twice. Move a handle with Take instead of copying the struct.
//
// # Protection
//
// Unprotect and Protect are exposure-counted: the first Unprotect opens the
// page read-write and the last matching Protect closes it again. Two regions
// sharing a page through copy-on-write therefore never re-protect it under
// each other. A failed protection change is fatal: the process is terminated
// through the allocator's zap logger, because continuing would leave a page
// readable outside the access protocol.
//
// # Thread Safety
//
// Allocator, Page and Ref.Clone/Release are safe for concurrent use. A single
// Ref value must not be released concurrently from two goroutines.
package page
