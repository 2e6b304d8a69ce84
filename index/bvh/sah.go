package bvh

import (
	"math"

	"github.com/hupe1980/sightline/geom"
)

const sahBins = 16

// plane is a candidate split between bins of one axis.
type plane struct {
	axis  int
	lo    float64
	scale float64
	bin   int // cells in bins [0, bin) go left
	cost  float64
}

func (p plane) binOf(r ref) int {
	return binIndex(r.center.Axis(p.axis), p.lo, p.scale)
}

// count returns the number of refs on the left of the plane. refs must be
// sorted along p.axis, so the left side is a prefix.
func (p plane) count(refs []ref) int {
	n := 0
	for _, r := range refs {
		if p.binOf(r) < p.bin {
			n++
		}
	}
	return n
}

func binIndex(c, lo, scale float64) int {
	b := int((c - lo) * scale)
	if b < 0 {
		return 0
	}
	if b >= sahBins {
		return sahBins - 1
	}
	return b
}

type bin struct {
	bounds geom.AABB
	count  int
}

// bestPlane evaluates the binned surface area heuristic on every axis with
// a non-zero centroid spread. Ties keep the lower axis and plane.
func bestPlane(refs []ref) (plane, bool) {
	lo, hi := refs[0].center, refs[0].center
	for _, r := range refs[1:] {
		lo = lo.Min(r.center)
		hi = hi.Max(r.center)
	}

	best := plane{cost: math.Inf(1)}
	found := false

	for axis := 0; axis < 3; axis++ {
		axisLo, axisHi := lo.Axis(axis), hi.Axis(axis)
		if axisHi <= axisLo {
			continue
		}
		scale := sahBins / (axisHi - axisLo)

		var bins [sahBins]bin
		for i := range bins {
			bins[i].bounds = geom.EmptyAABB()
		}
		for _, r := range refs {
			b := binIndex(r.center.Axis(axis), axisLo, scale)
			bins[b].bounds = bins[b].bounds.Union(r.box)
			bins[b].count++
		}

		// rightArea[i], rightCount[i] describe bins [i, sahBins)
		var rightArea [sahBins]float64
		var rightCount [sahBins]int
		acc, n := geom.EmptyAABB(), 0
		for i := sahBins - 1; i > 0; i-- {
			acc = acc.Union(bins[i].bounds)
			n += bins[i].count
			rightArea[i] = acc.SurfaceArea()
			rightCount[i] = n
		}

		acc, n = geom.EmptyAABB(), 0
		for i := 1; i < sahBins; i++ {
			acc = acc.Union(bins[i-1].bounds)
			n += bins[i-1].count
			if n == 0 || rightCount[i] == 0 {
				continue
			}
			cost := acc.SurfaceArea()*float64(n) + rightArea[i]*float64(rightCount[i])
			if cost < best.cost {
				best = plane{axis: axis, lo: axisLo, scale: scale, bin: i, cost: cost}
				found = true
			}
		}
	}

	return best, found
}
