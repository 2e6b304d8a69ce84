// Package bvh provides a bounding-volume hierarchy over simulation cells.
//
// The tree is built once (median or binned-SAH splits, optionally in
// parallel) and flattened into a depth-first node array: the left child of
// an inner node is the next node, the right child is stored as an index.
// Queries walk the array with an explicit stack, visiting children
// front-to-back, and never allocate beyond the result slice.
package bvh

import (
	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
)

// Compile-time check to ensure BVH satisfies the index interface.
var _ index.Index = (*BVH)(nil)

// node is a flattened tree node.
type node struct {
	bounds geom.AABB
	// offset is the first position in BVH.order for leaves and the index of
	// the right child for inner nodes.
	offset uint32
	// count is the number of cells of a leaf, 0 for inner nodes.
	count uint16
	axis  uint8
}

func (n *node) isLeaf() bool { return n.count > 0 }

// BVH is an immutable bounding-volume hierarchy. It is safe for concurrent
// queries.
type BVH struct {
	boxes    []geom.AABB    // by cell id
	order    []index.CellID // cell ids in leaf order
	nodes    []node
	opts     Options
	stats    Stats
	reserved int64
}

func (*BVH) Name() string { return "BVH" }

// Len returns the number of cells.
func (t *BVH) Len() int { return len(t.boxes) }

// Bounds returns the root box.
func (t *BVH) Bounds() (geom.AABB, error) {
	if len(t.nodes) == 0 {
		return geom.AABB{}, index.ErrEmptyIndex
	}
	return t.nodes[0].bounds, nil
}

// Box returns the box of cell id.
func (t *BVH) Box(id index.CellID) (geom.AABB, error) {
	return index.CheckBox(t.boxes, id)
}

// Options returns the options the tree was built with.
func (t *BVH) Options() Options { return t.opts }

// Close returns the reserved index memory to the resource controller.
func (t *BVH) Close() error {
	t.opts.Resource.ReleaseMemory(t.reserved)
	t.reserved = 0
	return nil
}

func (t *BVH) flatten(root *buildNode) {
	t.order = make([]index.CellID, 0, len(t.boxes))
	t.nodes = make([]node, 0, 2*len(t.boxes)/t.opts.LeafSize+1)
	t.stats = Stats{Cells: len(t.boxes)}
	t.flattenNode(root, 1)
	t.stats.Nodes = len(t.nodes)
	if t.stats.Leaves > 0 {
		t.stats.AvgLeafSize = float64(len(t.boxes)) / float64(t.stats.Leaves)
	}
}

func (t *BVH) flattenNode(n *buildNode, depth int) uint32 {
	i := uint32(len(t.nodes))
	t.nodes = append(t.nodes, node{bounds: n.bounds, axis: uint8(n.axis)})
	t.stats.MaxDepth = max(t.stats.MaxDepth, depth)

	if n.ids != nil {
		t.nodes[i].offset = uint32(len(t.order))
		t.nodes[i].count = uint16(len(n.ids))
		t.order = append(t.order, n.ids...)
		t.stats.Leaves++
		t.stats.MaxLeafSize = max(t.stats.MaxLeafSize, len(n.ids))
		return i
	}

	t.flattenNode(n.left, depth+1)
	t.nodes[i].offset = t.flattenNode(n.right, depth+1)
	return i
}

// Query returns every cell intersected by the ray, sorted by entry distance.
func (t *BVH) Query(ray geom.Ray) index.Segments {
	return t.QueryInto(ray, nil)
}

// QueryInto appends the segments of ray to dst.
func (t *BVH) QueryInto(ray geom.Ray, dst index.Segments) index.Segments {
	if ray.IsZero() || len(t.nodes) == 0 {
		return dst
	}
	if !geom.Hits(ray, t.nodes[0].bounds) {
		return dst
	}

	start := len(dst)

	var buf [64]uint32
	stack := append(buf[:0], 0)

	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[i]

		if n.isLeaf() {
			for _, id := range t.order[n.offset : n.offset+uint32(n.count)] {
				if tEnter, tExit, ok := geom.Intersect(ray, t.boxes[id]); ok {
					dst = append(dst, index.Segment{Cell: id, TEnter: tEnter, TExit: tExit})
				}
			}
			continue
		}

		left, right := i+1, n.offset
		lEnter, _, lok := geom.Intersect(ray, t.nodes[left].bounds)
		rEnter, _, rok := geom.Intersect(ray, t.nodes[right].bounds)

		switch {
		case lok && rok:
			// Push the far child first so the near child is visited next.
			if rEnter < lEnter {
				stack = append(stack, left, right)
			} else {
				stack = append(stack, right, left)
			}
		case lok:
			stack = append(stack, left)
		case rok:
			stack = append(stack, right)
		}
	}

	dst[start:].Sort()

	return dst
}

type stackEntry struct {
	node   uint32
	tEnter float64
}

// FirstHit returns the segment with the smallest entry distance (ties by
// lowest cell id). Subtrees entered after the best hit so far are skipped.
func (t *BVH) FirstHit(ray geom.Ray) (index.Segment, bool) {
	var (
		best  index.Segment
		found bool
	)

	if ray.IsZero() || len(t.nodes) == 0 {
		return best, false
	}

	rootEnter, _, ok := geom.Intersect(ray, t.nodes[0].bounds)
	if !ok {
		return best, false
	}

	// Equal entry distances are not pruned: a later subtree may hold the
	// same distance with a lower cell id.
	admits := func(tEnter float64) bool {
		return !found || tEnter <= best.TEnter
	}

	var buf [64]stackEntry
	stack := append(buf[:0], stackEntry{node: 0, tEnter: rootEnter})

	for len(stack) > 0 {
		e := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !admits(e.tEnter) {
			continue
		}

		n := &t.nodes[e.node]

		if n.isLeaf() {
			for _, id := range t.order[n.offset : n.offset+uint32(n.count)] {
				tEnter, tExit, ok := geom.Intersect(ray, t.boxes[id])
				if !ok {
					continue
				}
				if !found || tEnter < best.TEnter || (tEnter == best.TEnter && id < best.Cell) {
					best = index.Segment{Cell: id, TEnter: tEnter, TExit: tExit}
					found = true
				}
			}
			continue
		}

		left, right := e.node+1, n.offset
		lEnter, _, lok := geom.Intersect(ray, t.nodes[left].bounds)
		rEnter, _, rok := geom.Intersect(ray, t.nodes[right].bounds)
		lok = lok && admits(lEnter)
		rok = rok && admits(rEnter)

		switch {
		case lok && rok:
			if rEnter < lEnter {
				stack = append(stack, stackEntry{left, lEnter}, stackEntry{right, rEnter})
			} else {
				stack = append(stack, stackEntry{right, rEnter}, stackEntry{left, lEnter})
			}
		case lok:
			stack = append(stack, stackEntry{left, lEnter})
		case rok:
			stack = append(stack, stackEntry{right, rEnter})
		}
	}

	return best, found
}
