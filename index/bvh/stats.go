package bvh

import "fmt"

// Stats describes the shape of a built tree.
type Stats struct {
	Cells       int
	Nodes       int
	Leaves      int
	MaxDepth    int
	MaxLeafSize int
	AvgLeafSize float64
}

// String implements fmt.Stringer.
func (s Stats) String() string {
	return fmt.Sprintf("cells=%d nodes=%d leaves=%d depth=%d leaf(max=%d avg=%.2f)",
		s.Cells, s.Nodes, s.Leaves, s.MaxDepth, s.MaxLeafSize, s.AvgLeafSize)
}

// Stats returns statistics about the tree.
func (t *BVH) Stats() Stats {
	return t.stats
}
