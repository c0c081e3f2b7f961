package fastloop

import "time"

// ReactorOption configures a Reactor at construction time. Grounded on
// eventloop/options.go's LoopOption / loopOptionImpl closure pattern: an
// unexported interface with a single apply method, implemented by a
// closure-wrapping struct, so new options can be added without breaking
// callers.
type ReactorOption interface {
	apply(*reactorConfig)
}

type reactorConfig struct {
	pollTimeout     time.Duration
	eventBufferSize int
	logger          *Logger
}

type reactorOptionFunc func(*reactorConfig)

func (f reactorOptionFunc) apply(c *reactorConfig) { f(c) }

// WithPollTimeout overrides the per-round poll timeout (default 100ms).
func WithPollTimeout(d time.Duration) ReactorOption {
	return reactorOptionFunc(func(c *reactorConfig) { c.pollTimeout = d })
}

// WithEventBufferSize overrides the poller's fixed event buffer capacity
// (default 1024, spec §4.1).
func WithEventBufferSize(n int) ReactorOption {
	return reactorOptionFunc(func(c *reactorConfig) { c.eventBufferSize = n })
}

// WithLogger installs l as the package-wide logger when the reactor is
// constructed (see SetLogger in logging.go); the logger is shared by every
// Reactor in the process. Passing nil leaves the current logger unchanged.
func WithLogger(l *Logger) ReactorOption {
	return reactorOptionFunc(func(c *reactorConfig) { c.logger = l })
}
