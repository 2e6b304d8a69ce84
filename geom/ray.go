package geom

import (
	"fmt"
	"math"
)

// Ray is a half-line segment: an origin, a unit direction and a maximum
// parametric length. Points on the ray are origin + t*direction with t in
// [0, length].
//
// Rays are only valid when built with NewRay; the zero value has no
// direction and is rejected by every consumer.
type Ray struct {
	origin    Vec3
	direction Vec3
	invDir    Vec3
	length    float64
}

// NewRay creates a ray. The direction need not be normalized; it fails with
// ErrInvalidArgument if it has zero (or non-finite) magnitude, and length
// must be a non-negative finite number.
func NewRay(origin, direction Vec3, length float64) (Ray, error) {
	if !origin.IsFinite() {
		return Ray{}, fmt.Errorf("%w: origin %v is not finite", ErrInvalidArgument, origin)
	}
	if !direction.IsFinite() {
		return Ray{}, fmt.Errorf("%w: direction %v is not finite", ErrInvalidArgument, direction)
	}
	n := direction.Length()
	if n == 0 {
		return Ray{}, fmt.Errorf("%w: direction vector must be non-zero", ErrInvalidArgument)
	}
	if math.IsNaN(length) || math.IsInf(length, 0) || length < 0 {
		return Ray{}, fmt.Errorf("%w: length %g must be a non-negative finite number", ErrInvalidArgument, length)
	}

	d := direction.Multiply(1 / n)
	return Ray{
		origin:    origin,
		direction: d,
		invDir:    Vec3{1 / d.X, 1 / d.Y, 1 / d.Z},
		length:    length,
	}, nil
}

// Origin returns the ray origin.
func (r Ray) Origin() Vec3 { return r.origin }

// Direction returns the unit direction.
func (r Ray) Direction() Vec3 { return r.direction }

// Length returns the maximum parametric extent.
func (r Ray) Length() float64 { return r.length }

// IsZero reports whether r is the zero value (no direction).
func (r Ray) IsZero() bool { return r.direction == Vec3{} }

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) Vec3 {
	return r.origin.Add(r.direction.Multiply(t))
}

// End returns the point at the far end of the ray.
func (r Ray) End() Vec3 {
	return r.At(r.length)
}

// String implements fmt.Stringer.
func (r Ray) String() string {
	return fmt.Sprintf("Ray(o=%v d=%v len=%g)", r.origin, r.direction, r.length)
}
