package worker

import "github.com/lumina-social/lumina/pkg/logger"

// Option applies a configuration option to the LedgerWorker.
type Option func(*LedgerWorker)

// WithName sets the worker's name, used in log scoping.
func WithName(name string) Option {
	return func(w *LedgerWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(w *LedgerWorker) {
		if l != nil {
			w.logger = l
		}
	}
}
