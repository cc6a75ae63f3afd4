package pagetls

import "sync"

var (
	defaultEngine     *Engine
	defaultEngineOnce sync.Once
)

// Default returns the process-wide engine used by the package-level
// functions, built from DefaultOptions on first use.
func Default() *Engine {
	defaultEngineOnce.Do(func() {
		defaultEngine = New(DefaultOptions())
	})
	return defaultEngine
}

// Create allocates a region of size bytes for the calling goroutine on the default engine.
func Create(size int) error { return Default().Create(size) }

// Read copies len(p) bytes at offset out of the caller's region on the default engine.
func Read(offset int, p []byte) error { return Default().Read(offset, p) }

// Write copies p into the caller's region at offset on the default engine.
func Write(offset int, p []byte) error { return Default().Write(offset, p) }

// Destroy releases the caller's region on the default engine.
func Destroy() error { return Default().Destroy() }

// Clone shares target's region with the caller on the default engine.
func Clone(target ThreadID) error { return Default().Clone(target) }

// Go runs fn on a new goroutine armed against the default engine.
func Go(fn func()) { Default().Go(fn) }

// Arm arms the calling goroutine against the default engine. Use as
// defer pagetls.Arm()().
func Arm() func() { return Default().Arm() }
