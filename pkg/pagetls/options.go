package pagetls

import (
	"go.uber.org/zap"

	"github.com/joshuapare/pagetls/pkg/types"
)

// ThreadID identifies the goroutine that owns a region (re-exported for convenience).
type ThreadID = types.ThreadID

// Stats is a snapshot of engine state (re-exported for convenience).
type Stats = types.Stats

// Error sentinels (re-exported for convenience).
var (
	ErrInvalidSize   = types.ErrInvalidSize
	ErrAlreadyExists = types.ErrAlreadyExists
	ErrNoSuchRegion  = types.ErrNoSuchRegion
	ErrOutOfBounds   = types.ErrOutOfBounds
	ErrProtection    = types.ErrProtection
)

// Options controls engine behavior.
type Options struct {
	// Logger receives engine diagnostics. If nil, Logger() is used.
	// Protection failures are logged at Fatal level, which exits the process.
	Logger *zap.Logger

	// StrictBounds limits Read and Write to the size passed to Create.
	// When false, the bound is the page-rounded capacity and the padding
	// after the requested size is addressable.
	StrictBounds bool

	// ReleaseOnTerminate releases the region of a goroutine that the fault
	// handler terminates. Without it the region stays registered and its
	// pages stay mapped until the process exits.
	ReleaseOnTerminate bool

	// Identity returns the calling thread's identity.
	// If nil, the goroutine ID is used.
	Identity func() ThreadID
}

// DefaultOptions returns the options used by the default engine:
// page-rounded bounds and release on terminate.
func DefaultOptions() Options {
	return Options{ReleaseOnTerminate: true}
}
