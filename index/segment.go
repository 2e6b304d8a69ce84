package index

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// CellID identifies a cell by its position in the cell array the index was
// built from.
type CellID uint32

// NoCell marks a position outside every cell.
const NoCell CellID = math.MaxUint32

// MaxCells is the largest number of cells an index can address.
const MaxCells = int64(NoCell)

// Segment is the parametric interval [TEnter, TExit] during which a ray lies
// inside one cell's box.
type Segment struct {
	Cell   CellID
	TEnter float64
	TExit  float64
}

// Length returns the path length through the cell.
func (s Segment) Length() float64 {
	return s.TExit - s.TEnter
}

// String implements fmt.Stringer.
func (s Segment) String() string {
	return fmt.Sprintf("Segment(cell=%d [%g, %g])", s.Cell, s.TEnter, s.TExit)
}

// Segments is the ordered path-length decomposition of one ray.
type Segments []Segment

// Compare orders segments by entry distance, then by cell id.
func Compare(a, b Segment) int {
	if c := cmp.Compare(a.TEnter, b.TEnter); c != 0 {
		return c
	}
	return cmp.Compare(a.Cell, b.Cell)
}

// Sort sorts segments by entry distance (ties by cell id).
func (s Segments) Sort() {
	slices.SortFunc(s, Compare)
}

// IsSorted reports whether the segments are in query order.
func (s Segments) IsSorted() bool {
	return slices.IsSortedFunc(s, Compare)
}

// PathLength returns the summed length of all segments.
func (s Segments) PathLength() float64 {
	var total float64
	for _, seg := range s {
		total += seg.Length()
	}
	return total
}

// CellIDs returns the cell identifiers in segment order.
func (s Segments) CellIDs() []CellID {
	ids := make([]CellID, len(s))
	for i, seg := range s {
		ids[i] = seg.Cell
	}
	return ids
}

// CellSet returns the set of distinct cells touched by the segments.
func (s Segments) CellSet() *roaring.Bitmap {
	rb := roaring.New()
	for _, seg := range s {
		rb.Add(uint32(seg.Cell))
	}
	return rb
}
