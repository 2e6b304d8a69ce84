package bvh

import (
	"fmt"

	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/resource"
)

// SplitMethod selects how an inner node partitions its cells.
type SplitMethod int

const (
	// SplitMedian sorts by centroid along the split axis and halves the set.
	SplitMedian SplitMethod = iota
	// SplitSAH evaluates a binned surface area heuristic on all three axes
	// and falls back to the median split when no plane is cheaper.
	SplitSAH
)

// String implements fmt.Stringer.
func (m SplitMethod) String() string {
	switch m {
	case SplitMedian:
		return "median"
	case SplitSAH:
		return "sah"
	default:
		return fmt.Sprintf("SplitMethod(%d)", int(m))
	}
}

// MaxLeafSize is the largest accepted leaf size.
const MaxLeafSize = 64

// Options contains configuration options for building a BVH.
type Options struct {
	// LeafSize is the cell count at or below which a node becomes a leaf.
	// It must be in [1, MaxLeafSize].
	LeafSize int

	// Split selects the partitioning strategy.
	Split SplitMethod

	// Workers is the number of goroutines used for the build, including the
	// caller. Values <= 1 build serially.
	Workers int

	// ParallelThreshold is the minimum subtree size that is handed to
	// another worker.
	ParallelThreshold int

	// Resource, if set, reserves the index memory before building and
	// caps parallel subtree goroutines at its worker slots.
	Resource *resource.Controller
}

// DefaultOptions contains the default configuration options for the BVH.
var DefaultOptions = Options{
	LeafSize:          8,
	Split:             SplitMedian,
	Workers:           1,
	ParallelThreshold: 4096,
}

func (o Options) validate() error {
	if o.LeafSize < 1 || o.LeafSize > MaxLeafSize {
		return fmt.Errorf("%w: leaf size %d not in [1, %d]", geom.ErrInvalidArgument, o.LeafSize, MaxLeafSize)
	}
	if o.Split != SplitMedian && o.Split != SplitSAH {
		return fmt.Errorf("%w: unknown split method %s", geom.ErrInvalidArgument, o.Split)
	}
	if o.ParallelThreshold < 0 {
		return fmt.Errorf("%w: negative parallel threshold %d", geom.ErrInvalidArgument, o.ParallelThreshold)
	}
	return nil
}
