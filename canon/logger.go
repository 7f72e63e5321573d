package canon

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the canon package's logger, a no-op logger by default.
// It is only ever consulted for the engine's one recoverable lower-path
// diagnostic: a GuestLeak warning when a partially-written allocation could
// not be freed after a failed lower.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the canon package's logger. Call before any
// Lower call that might fail partway through an allocation.
func SetLogger(l *zap.Logger) {
	logger = l
}
