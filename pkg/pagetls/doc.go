// Package pagetls implements thread-local storage on top of page protection.
//
// # Overview
//
// Every participating goroutine may own one Region: a private run of
// host-page-sized anonymous mappings that stay inaccessible ("no access")
// except for the duration of a Read or Write call made by the owner. One
// goroutine can Clone another's Region cheaply: the page list is shared by
// reference and the first Write to a shared page gives the writer a private
// copy (copy-on-write).
//
// # Operations
//
//   - Create(size): allocate ceil(size/pageSize) pages for the caller
//   - Read(offset, p) / Write(offset, p): bounded copies out of / into the region
//   - Clone(target): share target's pages with the caller
//   - Destroy(): release the caller's pages and registry entry
//
// The package-level functions operate on a process-wide default Engine;
// New builds an isolated one.
//
// # Usage
//
//	if err := pagetls.Create(8192); err != nil {
//	    return err
//	}
//	defer pagetls.Destroy()
//
//	if err := pagetls.Write(0, []byte("hello")); err != nil {
//	    return err
//	}
//	out := make([]byte, 5)
//	if err := pagetls.Read(0, out); err != nil {
//	    return err
//	}
//
// # Fault Interception
//
// Dereferencing region memory outside Read/Write faults. A goroutine started
// with Engine.Go, or one that runs
//
//	defer engine.Arm()()
//
// at its top, has the fault converted to a recoverable panic and classified:
// if the faulting address belongs to any registered region the goroutine is
// terminated with runtime.Goexit; any other fault is re-raised and crashes
// the process as usual. Goroutines that are not armed crash the process on
// any such fault.
//
// # Errors
//
// Operations return errors wrapping the sentinels of package types
// (ErrInvalidSize, ErrAlreadyExists, ErrNoSuchRegion, ErrOutOfBounds);
// compare with errors.Is. A failure to change page protection is fatal and
// terminates the process through the engine's zap logger.
//
// # Thread Identity
//
// The calling goroutine is the thread. Regions are never inherited by
// goroutines a thread starts; use Clone to share.
package pagetls
