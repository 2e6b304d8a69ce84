package sightline

import (
	"context"
	"fmt"
	"iter"
	"sync/atomic"
	"time"

	"github.com/hupe1980/sightline/blobstore"
	"github.com/hupe1980/sightline/engine"
	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
	"github.com/hupe1980/sightline/index/bvh"
	"github.com/hupe1980/sightline/sampler"
	"github.com/hupe1980/sightline/snapshot"
)

// Version is the library version.
const Version = "0.1.1a1"

// Engine answers ray queries against one snapshot.
//
// The index is built once at construction and is immutable afterwards, so
// all query methods are safe for concurrent use.
type Engine struct {
	snap   *snapshot.Snapshot
	idx    *bvh.BVH
	driver *engine.Driver

	logger  *Logger
	metrics MetricsCollector

	closed atomic.Bool
}

// New builds an engine over boxes. Cell i is boxes[i]; the engine has no
// fields.
func New(ctx context.Context, boxes []geom.AABB, optFns ...Option) (*Engine, error) {
	return FromSnapshot(ctx, snapshot.New(boxes), optFns...)
}

// FromSnapshot builds an engine over a loaded snapshot.
func FromSnapshot(ctx context.Context, snap *snapshot.Snapshot, optFns ...Option) (*Engine, error) {
	return build(ctx, snap, applyOptions(optFns))
}

// Open loads the snapshot name from store and builds an engine over it.
//
// The format is chosen by extension (.json or .cells). Use WithFields to
// restrict the loaded fields.
func Open(ctx context.Context, store blobstore.BlobStore, name string, optFns ...Option) (*Engine, error) {
	o := applyOptions(optFns)

	start := time.Now()
	snap, err := snapshot.Load(ctx, store, name, o.snapshotOptions...)
	elapsed := time.Since(start)

	cells := 0
	if snap != nil {
		cells = snap.Len()
	}
	o.logger.LogLoad(ctx, name, cells, elapsed, err)
	o.metricsCollector.RecordLoad(cells, elapsed, err)

	if err != nil {
		return nil, translateError(err)
	}

	return build(ctx, snap, o)
}

func build(ctx context.Context, snap *snapshot.Snapshot, o options) (*Engine, error) {
	if snap == nil {
		return nil, fmt.Errorf("%w: nil snapshot", ErrInvalidArgument)
	}
	if snap.Fields == nil {
		snap.Fields = snapshot.NewFieldTable(snap.Len())
	}
	if snap.Fields.Len() != snap.Len() {
		return nil, fmt.Errorf("%w: field table has %d rows for %d cells", ErrInvalidArgument, snap.Fields.Len(), snap.Len())
	}

	bvhOpts := append([]func(*bvh.Options){func(bo *bvh.Options) {
		bo.Resource = o.resource
	}}, o.bvhOptions...)

	start := time.Now()
	idx, err := bvh.Build(ctx, snap.Boxes, bvhOpts...)
	elapsed := time.Since(start)

	stats := bvh.Stats{Cells: snap.Len()}
	if idx != nil {
		stats = idx.Stats()
	}
	o.logger.LogBuild(ctx, stats, elapsed, err)
	o.metricsCollector.RecordBuild(snap.Len(), elapsed, err)

	if err != nil {
		return nil, translateError(err)
	}

	driver, err := engine.NewDriver(idx,
		engine.WithLogger(o.logger.Logger),
		engine.WithWorkers(o.workers),
		engine.WithResourceController(o.resource),
		engine.WithMetricsObserver(driverObserver{mc: o.metricsCollector}),
		engine.WithSamplerOptions(o.samplerOptions...),
	)
	if err != nil {
		_ = idx.Close()
		return nil, translateError(err)
	}

	logger := o.logger
	if src := snap.Header.Source; src != "" {
		logger = logger.WithSource(src)
	}

	return &Engine{
		snap:    snap,
		idx:     idx,
		driver:  driver,
		logger:  logger,
		metrics: o.metricsCollector,
	}, nil
}

// Len returns the number of cells.
func (e *Engine) Len() int { return e.idx.Len() }

// Index returns the underlying BVH.
func (e *Engine) Index() index.Index { return e.idx }

// Snapshot returns the snapshot the engine was built from.
func (e *Engine) Snapshot() *snapshot.Snapshot { return e.snap }

// Stats returns statistics about the index tree.
func (e *Engine) Stats() bvh.Stats { return e.idx.Stats() }

// Workers returns the number of batch workers.
func (e *Engine) Workers() int { return e.driver.Workers() }

// Bounds returns the box enclosing every cell, or ErrEmptyIndex.
func (e *Engine) Bounds() (geom.AABB, error) {
	if e.closed.Load() {
		return geom.AABB{}, ErrClosed
	}
	b, err := e.idx.Bounds()
	return b, translateError(err)
}

// Box returns the box of cell id.
func (e *Engine) Box(id index.CellID) (geom.AABB, error) {
	if e.closed.Load() {
		return geom.AABB{}, ErrClosed
	}
	b, err := e.idx.Box(id)
	return b, translateError(err)
}

// Fields returns the field values of cell id. Missing values are omitted.
func (e *Engine) Fields(id index.CellID) (map[string]float64, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}
	f, err := e.snap.Fields.Fields(id)
	return f, translateError(err)
}

// Validate checks the structural invariants of the index.
func (e *Engine) Validate() error {
	if e.closed.Load() {
		return ErrClosed
	}
	return e.idx.Validate()
}

// Query returns every cell the ray from origin along direction crosses
// within length, sorted by entry distance.
func (e *Engine) Query(ctx context.Context, origin, direction geom.Vec3, length float64) (index.Segments, error) {
	res, err := e.do(ctx, "query", engine.Request{
		Origin:    origin,
		Direction: direction,
		Length:    length,
		Output:    engine.OutputSegments,
	})
	if err != nil {
		return nil, err
	}
	return res.Segments, nil
}

// FirstHit returns the nearest cell along the ray. ok is false if the ray
// misses every cell.
func (e *Engine) FirstHit(ctx context.Context, origin, direction geom.Vec3, length float64) (seg index.Segment, ok bool, err error) {
	res, err := e.do(ctx, "first_hit", engine.Request{
		Origin:    origin,
		Direction: direction,
		Length:    length,
		Output:    engine.OutputFirstHit,
	})
	if err != nil || len(res.Segments) == 0 {
		return index.Segment{}, false, err
	}
	return res.Segments[0], true, nil
}

// Trace samples n evenly spaced points along the ray, including both ends.
func (e *Engine) Trace(ctx context.Context, origin, direction geom.Vec3, length float64, n int, md sampler.Metadata) (*sampler.Sightline, error) {
	res, err := e.do(ctx, "trace", engine.Request{
		Origin:    origin,
		Direction: direction,
		Length:    length,
		Samples:   n,
		Metadata:  md,
	})
	if err != nil {
		return nil, err
	}
	return res.Sightline, nil
}

// TraceCells samples the ray at every cell boundary it crosses.
func (e *Engine) TraceCells(ctx context.Context, origin, direction geom.Vec3, length float64, md sampler.Metadata) (*sampler.Sightline, error) {
	res, err := e.do(ctx, "trace_cells", engine.Request{
		Origin:    origin,
		Direction: direction,
		Length:    length,
		CellAware: true,
		Metadata:  md,
	})
	if err != nil {
		return nil, err
	}
	return res.Sightline, nil
}

func (e *Engine) do(ctx context.Context, op string, req engine.Request) (engine.Result, error) {
	if e.closed.Load() {
		return engine.Result{}, ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return engine.Result{}, err
	}

	res := e.driver.Do(req)
	res.Err = translateError(res.Err)
	e.logger.LogQuery(ctx, op, len(res.Segments), res.Err)

	return res, res.Err
}

// Batch runs reqs on the worker pool and returns one result per request in
// input order. A failing request only sets its own Result.Err. If ctx is
// canceled, the unfinished results carry the context error, which Batch
// also returns.
func (e *Engine) Batch(ctx context.Context, reqs []engine.Request) ([]engine.Result, error) {
	if e.closed.Load() {
		return nil, ErrClosed
	}

	results, err := e.driver.Run(ctx, reqs)

	failed := 0
	for i := range results {
		if results[i].Err != nil {
			results[i].Err = translateError(results[i].Err)
			failed++
		}
	}
	err = translateError(err)

	e.logger.LogBatch(ctx, len(reqs), failed, engine.TouchedCells(results).GetCardinality(), err)

	return results, err
}

// Stream is like Batch but yields results in input order as they complete.
func (e *Engine) Stream(ctx context.Context, reqs []engine.Request) iter.Seq2[engine.Result, error] {
	return func(yield func(engine.Result, error) bool) {
		if e.closed.Load() {
			yield(engine.Result{Index: -1, Err: ErrClosed}, ErrClosed)
			return
		}
		for res, err := range e.driver.Stream(ctx, reqs) {
			res.Err = translateError(res.Err)
			if !yield(res, translateError(err)) {
				return
			}
		}
	}
}
