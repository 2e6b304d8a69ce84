package bvh

import (
	"errors"
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// ErrCorrupt is returned by Validate when the tree violates a structural
// invariant.
var ErrCorrupt = errors.New("bvh: corrupt tree")

// Validate checks that every cell is referenced by exactly one leaf and that
// every node box encloses its children and cells.
func (t *BVH) Validate() error {
	if len(t.nodes) == 0 {
		if len(t.boxes) != 0 {
			return fmt.Errorf("%w: %d cells but no nodes", ErrCorrupt, len(t.boxes))
		}
		return nil
	}

	seen := bitset.New(uint(len(t.boxes)))

	for i := range t.nodes {
		n := &t.nodes[i]

		if n.isLeaf() {
			end := int(n.offset) + int(n.count)
			if end > len(t.order) {
				return fmt.Errorf("%w: leaf %d range [%d, %d) exceeds %d cells", ErrCorrupt, i, n.offset, end, len(t.order))
			}
			for _, id := range t.order[n.offset:end] {
				if int(id) >= len(t.boxes) {
					return fmt.Errorf("%w: leaf %d references unknown cell %d", ErrCorrupt, i, id)
				}
				if seen.Test(uint(id)) {
					return fmt.Errorf("%w: cell %d referenced twice", ErrCorrupt, id)
				}
				seen.Set(uint(id))
				if !n.bounds.ContainsBox(t.boxes[id]) {
					return fmt.Errorf("%w: leaf %d does not enclose cell %d", ErrCorrupt, i, id)
				}
			}
			continue
		}

		left, right := i+1, int(n.offset)
		if right <= left || right >= len(t.nodes) {
			return fmt.Errorf("%w: node %d has right child %d", ErrCorrupt, i, right)
		}
		if !n.bounds.ContainsBox(t.nodes[left].bounds) || !n.bounds.ContainsBox(t.nodes[right].bounds) {
			return fmt.Errorf("%w: node %d does not enclose its children", ErrCorrupt, i)
		}
	}

	if seen.Count() != uint(len(t.boxes)) {
		return fmt.Errorf("%w: %d of %d cells reachable", ErrCorrupt, seen.Count(), len(t.boxes))
	}

	return nil
}
