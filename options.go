package terminology

import (
	"runtime"
)

// DefaultPageSize is the expansion window size used when no count is given.
const DefaultPageSize = 100

// Option configures the Engine.
type Option func(*Options)

// Options holds all configuration for the Engine.
type Options struct {
	// DefaultPageSize is the expansion window used when count is not given.
	DefaultPageSize int

	// Workers bounds the goroutines resolving expansion references.
	// Values <= 1 resolve sequentially.
	Workers int

	// Metrics records dropped expansion references. Optional.
	Metrics *Metrics
}

// DefaultOptions returns the default configuration.
func DefaultOptions() *Options {
	return &Options{
		DefaultPageSize: DefaultPageSize,
		Workers:         runtime.NumCPU(),
	}
}

// WithDefaultPageSize sets the expansion window used when count is not given.
func WithDefaultPageSize(size int) Option {
	return func(o *Options) {
		if size > 0 {
			o.DefaultPageSize = size
		}
	}
}

// WithWorkers sets the number of goroutines resolving expansion references.
// Defaults to runtime.NumCPU().
func WithWorkers(count int) Option {
	return func(o *Options) {
		if count > 0 {
			o.Workers = count
		}
	}
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// Apply returns DefaultOptions with opts applied in order.
func Apply(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}
