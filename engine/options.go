package engine

import (
	"log/slog"

	"github.com/hupe1980/sightline/resource"
	"github.com/hupe1980/sightline/sampler"
)

// Option defines a configuration option for the Driver.
type Option func(*Driver)

// WithLogger sets the logger for batch events.
func WithLogger(l *slog.Logger) Option {
	return func(d *Driver) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithWorkers sets the worker count. Values <= 0 use the resource
// controller's worker limit, or GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(d *Driver) {
		d.workers = n
	}
}

// WithWorkerPool runs batches on an existing pool. The driver does not close
// a pool it does not own.
func WithWorkerPool(p *WorkerPool) Option {
	return func(d *Driver) {
		d.pool = p
	}
}

// WithResourceController sets the controller used to cap ray throughput.
func WithResourceController(rc *resource.Controller) Option {
	return func(d *Driver) {
		d.rc = rc
	}
}

// WithMetricsObserver sets the metrics observer for the driver.
func WithMetricsObserver(observer MetricsObserver) Option {
	return func(d *Driver) {
		if observer != nil {
			d.metrics = observer
		}
	}
}

// WithSamplerOptions configures the sampler used for sightline requests.
func WithSamplerOptions(optFns ...func(o *sampler.Options)) Option {
	return func(d *Driver) {
		d.samplerOpts = append(d.samplerOpts, optFns...)
	}
}
