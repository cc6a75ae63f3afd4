package pagetls

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

// Logger returns the package logger. It is a no-op logger unless SetLogger
// has been called.
func Logger() *zap.Logger {
	if l := logger.Load(); l != nil {
		return l
	}
	return zap.NewNop()
}

// SetLogger replaces the package logger used by engines whose Options do not
// carry one. It must be called before those engines are created.
func SetLogger(l *zap.Logger) {
	logger.Store(l)
}
