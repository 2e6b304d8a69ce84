package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRay(t testing.TB, o, d Vec3, length float64) Ray {
	t.Helper()
	ray, err := NewRay(o, d, length)
	require.NoError(t, err)
	return ray
}

func mustBox(t testing.TB, center, half Vec3) AABB {
	t.Helper()
	box, err := NewAABBFromCenter(center, half)
	require.NoError(t, err)
	return box
}

func TestIntersect(t *testing.T) {
	box := mustBox(t, NewVec3(5, 0, 0), NewVec3(1, 1, 1))

	t.Run("AxisAlignedHit", func(t *testing.T) {
		ray := mustRay(t, Vec3{}, NewVec3(1, 0, 0), 10)
		tEnter, tExit, ok := Intersect(ray, box)
		require.True(t, ok)
		assert.InDelta(t, 4.0, tEnter, 1e-12)
		assert.InDelta(t, 6.0, tExit, 1e-12)
	})

	t.Run("PerpendicularMiss", func(t *testing.T) {
		ray := mustRay(t, Vec3{}, NewVec3(0, 1, 0), 10)
		_, _, ok := Intersect(ray, box)
		assert.False(t, ok)
	})

	t.Run("ParallelInsideSlab", func(t *testing.T) {
		// Direction has zero Y and Z components; origin lies within both slabs.
		ray := mustRay(t, NewVec3(0, 0.5, -0.5), NewVec3(1, 0, 0), 10)
		tEnter, tExit, ok := Intersect(ray, box)
		require.True(t, ok)
		assert.InDelta(t, 4.0, tEnter, 1e-12)
		assert.InDelta(t, 6.0, tExit, 1e-12)
	})

	t.Run("ParallelOutsideSlab", func(t *testing.T) {
		ray := mustRay(t, NewVec3(0, 1.5, 0), NewVec3(1, 0, 0), 10)
		_, _, ok := Intersect(ray, box)
		assert.False(t, ok)
	})

	t.Run("ParallelOnSlabBoundary", func(t *testing.T) {
		ray := mustRay(t, NewVec3(0, 1, 0), NewVec3(1, 0, 0), 10)
		tEnter, tExit, ok := Intersect(ray, box)
		require.True(t, ok)
		assert.InDelta(t, 4.0, tEnter, 1e-12)
		assert.InDelta(t, 6.0, tExit, 1e-12)
	})

	t.Run("SubnormalDirection", func(t *testing.T) {
		// 1/1e-320 overflows; the origin sits on the lower Y slab face.
		edge := AABB{Min: NewVec3(4, 0, -1), Max: NewVec3(6, 2, 1)}
		ray := mustRay(t, Vec3{}, NewVec3(1, 1e-320, 0), 10)
		require.True(t, math.IsInf(ray.invDir.Y, 1))

		tEnter, tExit, ok := Intersect(ray, edge)
		require.True(t, ok)
		assert.False(t, math.IsNaN(tEnter))
		assert.GreaterOrEqual(t, tEnter, 0.0)
		assert.LessOrEqual(t, tEnter, ray.Length())
		assert.InDelta(t, 4.0, tEnter, 1e-12)
		assert.InDelta(t, 6.0, tExit, 1e-12)

		outside := AABB{Min: NewVec3(4, 1, -1), Max: NewVec3(6, 2, 1)}
		_, _, ok = Intersect(ray, outside)
		assert.False(t, ok)
	})

	t.Run("TooShort", func(t *testing.T) {
		ray := mustRay(t, Vec3{}, NewVec3(1, 0, 0), 3.5)
		_, _, ok := Intersect(ray, box)
		assert.False(t, ok)
	})

	t.Run("ClampedAtLength", func(t *testing.T) {
		ray := mustRay(t, Vec3{}, NewVec3(1, 0, 0), 5)
		tEnter, tExit, ok := Intersect(ray, box)
		require.True(t, ok)
		assert.InDelta(t, 4.0, tEnter, 1e-12)
		assert.InDelta(t, 5.0, tExit, 1e-12)
	})

	t.Run("OriginInside", func(t *testing.T) {
		ray := mustRay(t, NewVec3(5, 0, 0), NewVec3(-1, 0, 0), 10)
		tEnter, tExit, ok := Intersect(ray, box)
		require.True(t, ok)
		assert.Equal(t, 0.0, tEnter)
		assert.InDelta(t, 1.0, tExit, 1e-12)
	})

	t.Run("BehindOrigin", func(t *testing.T) {
		ray := mustRay(t, NewVec3(10, 0, 0), NewVec3(1, 0, 0), 10)
		_, _, ok := Intersect(ray, box)
		assert.False(t, ok)
	})

	t.Run("ZeroLengthInside", func(t *testing.T) {
		ray := mustRay(t, NewVec3(5, 0, 0), NewVec3(0, 0, 1), 0)
		tEnter, tExit, ok := Intersect(ray, box)
		require.True(t, ok)
		assert.Equal(t, 0.0, tEnter)
		assert.Equal(t, 0.0, tExit)
	})

	t.Run("Diagonal", func(t *testing.T) {
		unit := AABB{Min: NewVec3(1, 1, 1), Max: NewVec3(2, 2, 2)}
		ray := mustRay(t, Vec3{}, NewVec3(1, 1, 1), 10)
		tEnter, tExit, ok := Intersect(ray, unit)
		require.True(t, ok)
		s := NewVec3(1, 1, 1).Length()
		assert.InDelta(t, s, tEnter, 1e-12)
		assert.InDelta(t, 2*s, tExit, 1e-12)
	})

	t.Run("PointCell", func(t *testing.T) {
		p := NewVec3(3, 0, 0)
		point := AABB{Min: p, Max: p}
		ray := mustRay(t, Vec3{}, NewVec3(1, 0, 0), 10)
		tEnter, tExit, ok := Intersect(ray, point)
		require.True(t, ok)
		assert.InDelta(t, 3.0, tEnter, 1e-12)
		assert.InDelta(t, 3.0, tExit, 1e-12)
	})
}
