package engine

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
	"github.com/hupe1980/sightline/resource"
	"github.com/hupe1980/sightline/sampler"
)

// Output selects what a request produces.
type Output int

const (
	// OutputSightline samples the ray (uniform or cell-aware).
	OutputSightline Output = iota
	// OutputSegments returns the segment list only.
	OutputSegments
	// OutputFirstHit returns only the nearest segment.
	OutputFirstHit
)

// Request specifies one ray of a batch. The ray is validated inside the
// batch so that a malformed request fails only its own result.
type Request struct {
	Origin    geom.Vec3
	Direction geom.Vec3
	Length    float64

	Output    Output
	Samples   int  // uniform sample count
	CellAware bool // sample at cell boundaries instead
	Metadata  sampler.Metadata
}

// Result is the outcome of one Request. Index is the request's position in
// the batch.
type Result struct {
	Index     int
	Segments  index.Segments
	Sightline *sampler.Sightline
	Err       error
}

// Driver runs batches of independent ray queries against one index.
// It is safe for concurrent use.
type Driver struct {
	idx         index.Index
	sampler     *sampler.Sampler
	samplerOpts []func(o *sampler.Options)

	pool     *WorkerPool
	ownsPool bool
	workers  int

	rc      *resource.Controller
	logger  *slog.Logger
	metrics MetricsObserver

	closed atomic.Bool
}

// NewDriver creates a driver over idx.
func NewDriver(idx index.Index, opts ...Option) (*Driver, error) {
	d := &Driver{
		idx:     idx,
		logger:  slog.New(slog.DiscardHandler),
		metrics: &NoopMetricsObserver{},
	}

	for _, opt := range opts {
		opt(d)
	}

	s, err := sampler.New(idx, d.samplerOpts...)
	if err != nil {
		return nil, err
	}
	d.sampler = s

	if d.pool == nil {
		workers := d.workers
		if workers <= 0 {
			workers = d.rc.MaxWorkers()
		}
		d.pool = NewWorkerPool(workers)
		d.ownsPool = true
	}

	return d, nil
}

// Workers returns the number of worker goroutines.
func (d *Driver) Workers() int { return d.pool.Workers() }

// Close releases the worker pool if the driver owns it.
func (d *Driver) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return nil
	}
	if d.ownsPool {
		d.pool.Close()
	}
	return nil
}

// Run executes all requests and returns one result per request in input
// order. Per-item failures are reported in Result.Err. If ctx is canceled,
// Run stops starting new rays, marks the remaining results with the context
// error and returns the partial results together with ctx.Err().
func (d *Driver) Run(ctx context.Context, reqs []Request) ([]Result, error) {
	if d.closed.Load() {
		return nil, ErrClosed
	}

	start := time.Now()
	results := make([]Result, len(reqs))

	var wg sync.WaitGroup
	err := d.dispatch(ctx, reqs, results, func(int) { wg.Done() }, wg.Add)
	wg.Wait()

	if err == nil {
		err = ctx.Err()
	}
	d.finish(start, results, err)

	return results, err
}

// Stream executes all requests and yields results in input order as soon as
// each one and all of its predecessors are done. Breaking out of the loop
// cancels the rays that have not started.
func (d *Driver) Stream(ctx context.Context, reqs []Request) iter.Seq2[Result, error] {
	return func(yield func(Result, error) bool) {
		if d.closed.Load() {
			yield(Result{Index: -1, Err: ErrClosed}, ErrClosed)
			return
		}

		ctx, cancel := context.WithCancel(ctx)
		defer cancel()

		start := time.Now()
		results := make([]Result, len(reqs))
		done := make([]chan struct{}, len(reqs))
		for i := range done {
			done[i] = make(chan struct{})
		}

		var wg sync.WaitGroup
		dispatchErr := make(chan error, 1)
		go func() {
			dispatchErr <- d.dispatch(ctx, reqs, results, func(i int) {
				close(done[i])
				wg.Done()
			}, wg.Add)
		}()

		completed := true
		for i := range results {
			<-done[i]
			if !yield(results[i], results[i].Err) {
				completed = false
				break
			}
		}

		cancel()
		err := <-dispatchErr
		wg.Wait()

		if completed {
			d.finish(start, results, err)
		}
	}
}

// dispatch submits one task per request. markDone(i) is called exactly once
// for every index, either by the task or, for requests that could not be
// submitted, by dispatch itself. add registers pending work before it is
// submitted.
func (d *Driver) dispatch(ctx context.Context, reqs []Request, results []Result, markDone func(int), add func(int)) error {
	for i := range reqs {
		results[i].Index = i
		add(1)

		err := d.pool.Submit(ctx, func() {
			defer markDone(i)
			defer func() {
				if r := recover(); r != nil {
					results[i] = Result{Index: i, Err: fmt.Errorf("%w: %v", ErrPanic, r)}
				}
			}()

			// Cooperative cancellation between rays.
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			if err := d.rc.WaitRays(ctx, 1); err != nil {
				results[i].Err = err
				return
			}

			results[i] = d.Do(reqs[i])
			results[i].Index = i
		})
		if err != nil {
			for j := i; j < len(reqs); j++ {
				if j > i {
					results[j].Index = j
					add(1)
				}
				results[j].Err = err
				markDone(j)
			}
			return err
		}
	}
	return nil
}

// Do executes a single request on the calling goroutine. A panic inside
// the query is returned as ErrPanic.
func (d *Driver) Do(req Request) (res Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			res = Result{Err: fmt.Errorf("%w: %v", ErrPanic, r)}
		}
		d.metrics.OnRay(time.Since(start), len(res.Segments), res.Err)
	}()

	return d.do(req)
}

func (d *Driver) do(req Request) Result {
	ray, err := geom.NewRay(req.Origin, req.Direction, req.Length)
	if err != nil {
		return Result{Err: err}
	}

	switch req.Output {
	case OutputSegments:
		return Result{Segments: d.idx.Query(ray)}
	case OutputFirstHit:
		if seg, ok := d.idx.FirstHit(ray); ok {
			return Result{Segments: index.Segments{seg}}
		}
		return Result{}
	}

	sr := sampler.Request{Mode: sampler.ModeUniform, N: req.Samples, Metadata: req.Metadata}
	if req.CellAware {
		sr.Mode = sampler.ModeCellAware
	}

	sl, err := d.sampler.Sample(ray, sr)
	if err != nil {
		return Result{Err: err}
	}

	return Result{Segments: sl.Segments, Sightline: sl}
}

func (d *Driver) finish(start time.Time, results []Result, err error) {
	failed := 0
	for i := range results {
		if results[i].Err != nil {
			failed++
		}
	}

	elapsed := time.Since(start)
	d.metrics.OnBatch(elapsed, len(results), failed, err)

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		d.logger.Warn("batch canceled", "rays", len(results), "failed", failed, "duration", elapsed, "error", err)
	case err != nil:
		d.logger.Error("batch aborted", "rays", len(results), "failed", failed, "duration", elapsed, "error", err)
	default:
		d.logger.Info("batch complete", "rays", len(results), "failed", failed, "duration", elapsed)
	}
}

// TouchedCells returns the union of all cells touched by the results, for
// prefetching per-cell fields.
func TouchedCells(results []Result) *roaring.Bitmap {
	rb := roaring.New()
	for i := range results {
		for _, seg := range results[i].Segments {
			rb.Add(uint32(seg.Cell))
		}
		if sl := results[i].Sightline; sl != nil {
			for _, c := range sl.Cells {
				if c != index.NoCell {
					rb.Add(uint32(c))
				}
			}
		}
	}
	return rb
}
