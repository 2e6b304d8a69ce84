package geom

import (
	"fmt"
	"math"
)

// AABB represents an axis-aligned bounding box
type AABB struct {
	Min Vec3 // Minimum corner
	Max Vec3 // Maximum corner
}

// NewAABB creates a new AABB from min and max points.
// It fails if min exceeds max on any axis or a coordinate is NaN.
// Zero-extent boxes are valid and represent point cells.
func NewAABB(min, max Vec3) (AABB, error) {
	box := AABB{Min: min, Max: max}
	if err := box.Validate(); err != nil {
		return AABB{}, err
	}
	return box, nil
}

// NewAABBFromCenter creates an AABB from a cell center and its half-extent.
func NewAABBFromCenter(center, half Vec3) (AABB, error) {
	if half.X < 0 || half.Y < 0 || half.Z < 0 {
		return AABB{}, fmt.Errorf("%w: negative half-size %v", ErrInvalidArgument, half)
	}
	return NewAABB(center.Subtract(half), center.Add(half))
}

// EmptyAABB returns the identity element of Union: an inverted box that
// contains nothing.
func EmptyAABB() AABB {
	inf := math.Inf(1)
	return AABB{
		Min: Vec3{inf, inf, inf},
		Max: Vec3{-inf, -inf, -inf},
	}
}

// Validate reports ErrInvalidArgument if min > max on any axis or a
// coordinate is NaN.
func (aabb AABB) Validate() error {
	for axis := 0; axis < 3; axis++ {
		lo, hi := aabb.Min.Axis(axis), aabb.Max.Axis(axis)
		if math.IsNaN(lo) || math.IsNaN(hi) {
			return fmt.Errorf("%w: NaN coordinate on axis %d", ErrInvalidArgument, axis)
		}
		if lo > hi {
			return fmt.Errorf("%w: min %g > max %g on axis %d", ErrInvalidArgument, lo, hi, axis)
		}
	}
	return nil
}

// IsValid returns true if this is a valid AABB (min <= max for all axes)
func (aabb AABB) IsValid() bool {
	return aabb.Validate() == nil
}

// Union returns an AABB that bounds both this AABB and another
func (aabb AABB) Union(other AABB) AABB {
	return AABB{Min: aabb.Min.Min(other.Min), Max: aabb.Max.Max(other.Max)}
}

// Extend returns an AABB grown to include the point p.
func (aabb AABB) Extend(p Vec3) AABB {
	return AABB{Min: aabb.Min.Min(p), Max: aabb.Max.Max(p)}
}

// Center returns the center point of the AABB
func (aabb AABB) Center() Vec3 {
	return aabb.Min.Add(aabb.Max).Multiply(0.5)
}

// Size returns the size (extent) of the AABB along each axis
func (aabb AABB) Size() Vec3 {
	return aabb.Max.Subtract(aabb.Min)
}

// SurfaceArea returns the surface area of the AABB.
// Empty (inverted) boxes have zero area.
func (aabb AABB) SurfaceArea() float64 {
	size := aabb.Size()
	if size.X < 0 || size.Y < 0 || size.Z < 0 {
		return 0
	}
	return 2.0 * (size.X*size.Y + size.Y*size.Z + size.Z*size.X)
}

// LongestAxis returns the axis (0=X, 1=Y, 2=Z) with the longest extent.
// Ties resolve to the lower axis.
func (aabb AABB) LongestAxis() int {
	return LongestAxis(aabb.Size())
}

// LongestAxis returns the index of the largest component of v, preferring
// the lower axis on ties.
func LongestAxis(v Vec3) int {
	axis := 0
	if v.Y > v.Axis(axis) {
		axis = 1
	}
	if v.Z > v.Axis(axis) {
		axis = 2
	}
	return axis
}

// Contains reports whether p lies inside the box (boundary inclusive).
func (aabb AABB) Contains(p Vec3) bool {
	return p.X >= aabb.Min.X && p.X <= aabb.Max.X &&
		p.Y >= aabb.Min.Y && p.Y <= aabb.Max.Y &&
		p.Z >= aabb.Min.Z && p.Z <= aabb.Max.Z
}

// ContainsBox reports whether other lies entirely inside the box.
func (aabb AABB) ContainsBox(other AABB) bool {
	return aabb.Contains(other.Min) && aabb.Contains(other.Max)
}
