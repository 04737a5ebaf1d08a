package checkedqueue

import (
	"io"
	"log/slog"
)

type options struct {
	logger *slog.Logger
	checks bool
}

func defaultOptions() options {
	return options{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		checks: invariantChecksDefault,
	}
}

// Option configures a Queue.
type Option func(*options)

// WithLogger sets the logger used for invariant check tracing and violation
// reports. A nil logger is ignored.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithInvariantChecks enables or disables the structural check that runs
// before and after every mutation. The default depends on the build: on,
// unless built with the nocheck tag.
func WithInvariantChecks(enabled bool) Option {
	return func(o *options) {
		o.checks = enabled
	}
}
