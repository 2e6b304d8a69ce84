package geom

import "math"

// Intersect tests the ray against box using the slab method and returns the
// parametric entry/exit distances clamped to [0, ray.Length()].
//
// An axis along which the direction is zero, or so small that its reciprocal
// overflows, never divides: the ray is parallel to that slab and either lies
// inside it for its whole length (the axis does not constrain t) or misses
// the box.
func Intersect(ray Ray, box AABB) (tEnter, tExit float64, ok bool) {
	tMin, tMax, hit := slabs(ray, box)
	if !hit || tMax < math.Max(tMin, 0) || tMin > ray.length {
		return 0, 0, false
	}
	return math.Max(tMin, 0), math.Min(tMax, ray.length), true
}

// Hits reports whether the ray touches box within [0, ray.Length()].
func Hits(ray Ray, box AABB) bool {
	_, _, ok := Intersect(ray, box)
	return ok
}

// slabs returns the unclamped [tMin, tMax] interval of the infinite line.
func slabs(ray Ray, box AABB) (tMin, tMax float64, ok bool) {
	tMin = math.Inf(-1)
	tMax = math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		origin := ray.origin.Axis(axis)
		lo, hi := box.Min.Axis(axis), box.Max.Axis(axis)

		inv := ray.invDir.Axis(axis)
		if ray.direction.Axis(axis) == 0 || math.IsInf(inv, 0) {
			if origin < lo || origin > hi {
				return 0, 0, false
			}
			continue
		}

		t0 := (lo - origin) * inv
		t1 := (hi - origin) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}

		tMin = math.Max(tMin, t0)
		tMax = math.Min(tMax, t1)
		if tMin > tMax {
			return 0, 0, false
		}
	}

	return tMin, tMax, true
}
