package processor

import (
	"log/slog"
	"runtime"
)

type options struct {
	logger      *slog.Logger
	concurrency int
	dryRun      bool
}

// Option configures a Processor or a Runner.
type Option func(*options)

func defaultOptions() *options {
	return &options{
		logger:      slog.New(slog.DiscardHandler),
		concurrency: runtime.NumCPU(),
	}
}

func buildOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithLogger sets the logger. A nil logger keeps the silent default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithConcurrency bounds the number of documents processed at once by a Runner.
// Values below one fall back to a single worker.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.concurrency = n
	}
}

// WithDryRun makes a Runner compute changes without saving them.
func WithDryRun(dry bool) Option {
	return func(o *options) {
		o.dryRun = dry
	}
}
