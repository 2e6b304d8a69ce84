package bvh

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"unsafe"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
)

// ref is a cell as seen by the builder.
type ref struct {
	id     index.CellID
	box    geom.AABB
	center geom.Vec3
}

// buildNode is the pointer-based tree produced before flattening.
type buildNode struct {
	bounds      geom.AABB
	left, right *buildNode
	ids         []index.CellID // leaves only
	axis        int
}

type builder struct {
	opts  Options
	group *errgroup.Group
}

// Build constructs a BVH over a copy of boxes. Cell i of the index is
// boxes[i]. Zero boxes yield an empty index.
func Build(ctx context.Context, boxes []geom.AABB, optFns ...func(o *Options)) (*BVH, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if err := opts.validate(); err != nil {
		return nil, err
	}

	if int64(len(boxes)) > index.MaxCells {
		return nil, fmt.Errorf("%w: %d cells exceeds the addressable maximum", geom.ErrInvalidArgument, len(boxes))
	}

	refs := make([]ref, len(boxes))
	owned := make([]geom.AABB, len(boxes))
	for i, box := range boxes {
		if err := box.Validate(); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		owned[i] = box
		refs[i] = ref{id: index.CellID(i), box: box, center: box.Center()}
	}

	reserved := EstimateMemory(len(boxes), opts.LeafSize)
	if err := opts.Resource.ReserveMemory(reserved); err != nil {
		return nil, err
	}

	t := &BVH{
		boxes:    owned,
		opts:     opts,
		reserved: reserved,
	}

	if len(refs) == 0 {
		return t, nil
	}

	root, err := buildTree(ctx, refs, opts)
	if err != nil {
		opts.Resource.ReleaseMemory(reserved)
		return nil, err
	}

	t.flatten(root)

	return t, nil
}

// New builds a BVH without a cancellation context.
func New(boxes []geom.AABB, optFns ...func(o *Options)) (*BVH, error) {
	return Build(context.Background(), boxes, optFns...)
}

// EstimateMemory returns the approximate number of bytes held by a BVH over
// n cells, including transient build state.
func EstimateMemory(n, leafSize int) int64 {
	if n == 0 {
		return 0
	}
	leafSize = max(leafSize, 1)
	leaves := int64(2*n/leafSize + 1)
	nodes := 2*leaves - 1

	const (
		boxSize  = int64(unsafe.Sizeof(geom.AABB{}))
		refSize  = int64(unsafe.Sizeof(ref{}))
		nodeSize = int64(unsafe.Sizeof(node{}))
		idSize   = int64(unsafe.Sizeof(index.CellID(0)))
	)

	return int64(n)*(boxSize+refSize+idSize) + nodes*nodeSize
}

func buildTree(ctx context.Context, refs []ref, opts Options) (*buildNode, error) {
	b := &builder{opts: opts}

	if opts.Workers <= 1 || len(refs) < opts.ParallelThreshold {
		return b.build(ctx, refs)
	}

	g, gctx := errgroup.WithContext(ctx)
	// The calling goroutine is one of the workers.
	g.SetLimit(opts.Workers - 1)
	b.group = g

	root, err := b.build(gctx, refs)
	if werr := g.Wait(); err == nil {
		err = werr
	}
	if err != nil {
		return nil, err
	}

	return root, nil
}

func (b *builder) build(ctx context.Context, refs []ref) (*buildNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bounds := refs[0].box
	for _, r := range refs[1:] {
		bounds = bounds.Union(r.box)
	}

	if len(refs) <= b.opts.LeafSize {
		ids := make([]index.CellID, len(refs))
		for i, r := range refs {
			ids[i] = r.id
		}
		slices.Sort(ids)
		return &buildNode{bounds: bounds, ids: ids}, nil
	}

	axis, mid := b.split(refs, bounds)
	n := &buildNode{bounds: bounds, axis: axis}

	var leftErr, rightErr error

	if b.group != nil && len(refs) >= b.opts.ParallelThreshold && b.opts.Resource.TryAcquireWorker() {
		done := make(chan struct{})
		if b.group.TryGo(func() error {
			defer b.opts.Resource.ReleaseWorker()
			defer close(done)
			n.left, leftErr = b.build(ctx, refs[:mid])
			return leftErr
		}) {
			n.right, rightErr = b.build(ctx, refs[mid:])
			<-done
			if leftErr != nil {
				return nil, leftErr
			}
			if rightErr != nil {
				return nil, rightErr
			}
			return n, nil
		}
		b.opts.Resource.ReleaseWorker()
	}

	if n.left, leftErr = b.build(ctx, refs[:mid]); leftErr != nil {
		return nil, leftErr
	}
	if n.right, rightErr = b.build(ctx, refs[mid:]); rightErr != nil {
		return nil, rightErr
	}

	return n, nil
}

// split orders refs and returns the split axis and the partition index.
// Both halves are non-empty.
func (b *builder) split(refs []ref, bounds geom.AABB) (axis, mid int) {
	axis = splitAxis(refs, bounds)
	mid = len(refs) / 2

	if b.opts.Split == SplitSAH {
		if plane, ok := bestPlane(refs); ok {
			sortRefs(refs, axis)
			if plane.cost < partitionCost(refs, mid) {
				sortRefs(refs, plane.axis)
				return plane.axis, plane.count(refs)
			}
			return axis, mid
		}
	}

	sortRefs(refs, axis)
	return axis, mid
}

// splitAxis returns the axis of greatest centroid spread, or of greatest box
// extent when every centroid coincides.
func splitAxis(refs []ref, bounds geom.AABB) int {
	lo, hi := refs[0].center, refs[0].center
	for _, r := range refs[1:] {
		lo = lo.Min(r.center)
		hi = hi.Max(r.center)
	}

	spread := hi.Subtract(lo)
	if spread == (geom.Vec3{}) {
		return bounds.LongestAxis()
	}
	return geom.LongestAxis(spread)
}

// sortRefs sorts by centroid along axis, ties by cell id.
func sortRefs(refs []ref, axis int) {
	slices.SortFunc(refs, func(a, b ref) int {
		if c := cmp.Compare(a.center.Axis(axis), b.center.Axis(axis)); c != 0 {
			return c
		}
		return cmp.Compare(a.id, b.id)
	})
}

// partitionCost returns the SAH cost of splitting sorted refs at mid.
func partitionCost(refs []ref, mid int) float64 {
	left, right := geom.EmptyAABB(), geom.EmptyAABB()
	for _, r := range refs[:mid] {
		left = left.Union(r.box)
	}
	for _, r := range refs[mid:] {
		right = right.Union(r.box)
	}
	return left.SurfaceArea()*float64(mid) + right.SurfaceArea()*float64(len(refs)-mid)
}
