package index

import (
	"github.com/hupe1980/sightline/geom"
)

// Index is a spatial index over cell boxes supporting ray queries.
type Index interface {
	// Len returns the number of cells the index was built over.
	Len() int

	// Bounds returns the box enclosing every cell, or ErrEmptyIndex.
	Bounds() (geom.AABB, error)

	// Box returns the box of a single cell.
	Box(id CellID) (geom.AABB, error)

	// Query returns every cell intersected by the ray within [0, ray.Length()],
	// sorted by entry distance (ties by cell id).
	Query(ray geom.Ray) Segments

	// QueryInto is like Query but appends to dst, allowing buffer reuse.
	QueryInto(ray geom.Ray, dst Segments) Segments

	// FirstHit returns the segment with the smallest entry distance.
	FirstHit(ray geom.Ray) (Segment, bool)

	// Name returns a short identifier of the implementation.
	Name() string
}

// CheckBox returns the box for id from boxes, or ErrCellOutOfRange.
func CheckBox(boxes []geom.AABB, id CellID) (geom.AABB, error) {
	if id == NoCell || int64(id) >= int64(len(boxes)) {
		return geom.AABB{}, &ErrCellOutOfRange{ID: id, Count: len(boxes)}
	}
	return boxes[id], nil
}

// Bounds returns the union of boxes, or ErrEmptyIndex if there are none.
func Bounds(boxes []geom.AABB) (geom.AABB, error) {
	if len(boxes) == 0 {
		return geom.AABB{}, ErrEmptyIndex
	}
	b := boxes[0]
	for _, box := range boxes[1:] {
		b = b.Union(box)
	}
	return b, nil
}
