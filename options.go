package sightline

import (
	"log/slog"

	"github.com/hupe1980/sightline/codec"
	"github.com/hupe1980/sightline/index/bvh"
	"github.com/hupe1980/sightline/resource"
	"github.com/hupe1980/sightline/sampler"
	"github.com/hupe1980/sightline/snapshot"
)

type options struct {
	bvhOptions       []func(*bvh.Options)
	samplerOptions   []func(*sampler.Options)
	snapshotOptions  []func(*snapshot.Options)
	workers          int
	resource         *resource.Controller
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures Engine construction.
type Option func(*options)

// WithIndexOptions configures the BVH build.
//
// Example:
//
//	eng, _ := sightline.New(ctx, boxes, sightline.WithIndexOptions(func(o *bvh.Options) {
//	    o.Split = bvh.SplitSAH
//	    o.Workers = 4
//	}))
func WithIndexOptions(optFns ...func(*bvh.Options)) Option {
	return func(o *options) {
		o.bvhOptions = append(o.bvhOptions, optFns...)
	}
}

// WithSamplerOptions configures sampling, e.g. the cell-aware refinement spacing.
func WithSamplerOptions(optFns ...func(*sampler.Options)) Option {
	return func(o *options) {
		o.samplerOptions = append(o.samplerOptions, optFns...)
	}
}

// WithSnapshotOptions configures snapshot loading in Open.
func WithSnapshotOptions(optFns ...func(*snapshot.Options)) Option {
	return func(o *options) {
		o.snapshotOptions = append(o.snapshotOptions, optFns...)
	}
}

// WithFields restricts the fields Open loads.
// Shorthand for WithSnapshotOptions(snapshot.WithFields(names...)).
func WithFields(names ...string) Option {
	return WithSnapshotOptions(snapshot.WithFields(names...))
}

// WithCodec selects the codec for JSON snapshots. nil means codec.Default.
func WithCodec(c codec.Codec) Option {
	if c == nil {
		c = codec.Default
	}
	return WithSnapshotOptions(snapshot.WithCodec(c))
}

// WithWorkers sets the number of batch workers. Values <= 0 use the resource
// controller's worker limit, or GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithResourceController bounds index memory, batch workers and ray
// throughput.
//
// Example:
//
//	rc := resource.NewController(resource.Config{
//	    MemoryLimitBytes: 512 << 20,
//	    RaysPerSecond:    10000,
//	})
//	eng, _ := sightline.Open(ctx, store, "snap.cells", sightline.WithResourceController(rc))
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resource = rc
	}
}

// WithMetricsCollector receives load, build, query and batch measurements.
// nil disables collection.
//
//	metrics := &sightline.BasicMetricsCollector{}
//	eng, _ := sightline.New(ctx, boxes, sightline.WithMetricsCollector(metrics))
//	...
//	fmt.Println(metrics.GetStats().QueryCount)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		o.metricsCollector = mc
	}
}

// WithLogger sets the engine logger. nil disables logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLogLevel is shorthand for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.metricsCollector == nil {
		o.metricsCollector = NoopMetricsCollector{}
	}
	if o.logger == nil {
		o.logger = NoopLogger()
	}
	return o
}
