package resource

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the resource package's logger instance, a no-op logger by
// default. It is consulted only for the two recoverable diagnostics this
// package can produce: a caught destructor trap, and a skipped
// cross-instance destructor invocation.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the resource package's logger. Call before any
// Table operations that might invoke a destructor.
func SetLogger(l *zap.Logger) {
	logger = l
}
