// Package flat provides a brute-force spatial index that tests the ray
// against every cell box. It is the reference oracle for the BVH and a
// reasonable choice for very small cell counts.
package flat

import (
	"fmt"

	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
)

// Compile-time check to ensure Flat satisfies the index interface.
var _ index.Index = (*Flat)(nil)

// Flat is a linear-scan index. It is immutable after construction and safe
// for concurrent queries.
type Flat struct {
	boxes []geom.AABB
}

// New creates a flat index over a copy of boxes. Every box must be valid.
func New(boxes []geom.AABB) (*Flat, error) {
	if int64(len(boxes)) > index.MaxCells {
		return nil, fmt.Errorf("%w: %d cells exceeds the addressable maximum", geom.ErrInvalidArgument, len(boxes))
	}

	owned := make([]geom.AABB, len(boxes))
	for i, box := range boxes {
		if err := box.Validate(); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
		owned[i] = box
	}

	return &Flat{boxes: owned}, nil
}

func (*Flat) Name() string { return "Flat" }

// Len returns the number of cells.
func (f *Flat) Len() int { return len(f.boxes) }

// Bounds returns the box enclosing every cell.
func (f *Flat) Bounds() (geom.AABB, error) {
	return index.Bounds(f.boxes)
}

// Box returns the box of cell id.
func (f *Flat) Box(id index.CellID) (geom.AABB, error) {
	return index.CheckBox(f.boxes, id)
}

// Query tests every cell and returns the sorted segments.
func (f *Flat) Query(ray geom.Ray) index.Segments {
	return f.QueryInto(ray, nil)
}

// QueryInto appends the segments of ray to dst.
func (f *Flat) QueryInto(ray geom.Ray, dst index.Segments) index.Segments {
	if ray.IsZero() {
		return dst
	}

	start := len(dst)
	for i, box := range f.boxes {
		if tEnter, tExit, ok := geom.Intersect(ray, box); ok {
			dst = append(dst, index.Segment{Cell: index.CellID(i), TEnter: tEnter, TExit: tExit})
		}
	}
	dst[start:].Sort()

	return dst
}

// FirstHit returns the segment with the smallest entry distance.
func (f *Flat) FirstHit(ray geom.Ray) (index.Segment, bool) {
	if ray.IsZero() {
		return index.Segment{}, false
	}

	var (
		best  index.Segment
		found bool
	)
	for i, box := range f.boxes {
		tEnter, tExit, ok := geom.Intersect(ray, box)
		if !ok {
			continue
		}
		// Cells are scanned in id order, so a strict comparison keeps the
		// lowest id on ties.
		if !found || tEnter < best.TEnter {
			best = index.Segment{Cell: index.CellID(i), TEnter: tEnter, TExit: tExit}
			found = true
		}
	}

	return best, found
}
