// Package geom provides the value types of the spatial core: 3D vectors,
// axis-aligned bounding boxes and normalized rays, plus the slab-method
// ray/box intersection test used by every index implementation.
//
// All types are immutable values. Constructors validate their invariants and
// fail with ErrInvalidArgument instead of clamping bad input:
//
//	box, err := geom.NewAABBFromCenter(geom.NewVec3(5, 0, 0), geom.NewVec3(1, 1, 1))
//	ray, err := geom.NewRay(geom.Vec3{}, geom.NewVec3(1, 0, 0), 10)
//	tEnter, tExit, ok := geom.Intersect(ray, box) // 4, 6, true
package geom
