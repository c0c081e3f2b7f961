// logging.go wires the package-level structured logger.
//
// Design decision: a package-level variable is appropriate here for the
// same reason eventloop/logging.go gives for its own global logger --
// logging is an infrastructure cross-cutting concern, and every Reactor in
// a process shares the same logging semantics. Grounded on
// eventloop/logging.go's SetStructuredLogger / getGlobalLogger pattern,
// but backed by github.com/joeycumines/logiface with the
// github.com/joeycumines/stumpy JSON writer -- the logging stack the
// go-utilpkg monorepo (this module's teacher's parent repo) actually
// ships, per logiface-stumpy/example_test.go's
// stumpy.L.New(stumpy.L.WithStumpy()) usage.
package fastloop

import (
	"sync"

	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
)

// Logger is the structured logger type used throughout this package.
type Logger = logiface.Logger[*stumpy.Event]

var (
	loggerMu      sync.RWMutex
	currentLogger = noopLogger()
)

// noopLogger builds a Logger with Disabled's default level, so calls are
// cheap no-ops until a caller opts in via SetLogger or WithLogger.
func noopLogger() *Logger {
	return stumpy.L.New(stumpy.L.WithLevel(logiface.LevelDisabled))
}

// SetLogger installs l as the package-wide logger, shared by every Reactor
// in the process; the WithLogger option installs its logger through this
// same function. Passing nil restores the disabled no-op logger.
func SetLogger(l *Logger) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	if l == nil {
		currentLogger = noopLogger()
	} else {
		currentLogger = l
	}
}

// setLogger is the internal hook NewReactor uses to apply a WithLogger
// option.
func setLogger(l *Logger) { SetLogger(l) }

// logger returns the current package-wide logger.
func logger() *Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return currentLogger
}

// NewStderrLogger builds a Logger that writes JSON lines to os.Stderr via
// stumpy, at the given minimum level. A convenience for callers who want
// a ready-made non-disabled logger instead of wiring stumpy options
// themselves.
func NewStderrLogger(minLevel logiface.Level) *Logger {
	return stumpy.L.New(
		stumpy.L.WithStumpy(),
		stumpy.L.WithLevel(minLevel),
	)
}
