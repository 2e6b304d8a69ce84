package flat

import (
	"testing"

	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitCubes(centers ...geom.Vec3) []geom.AABB {
	boxes := make([]geom.AABB, len(centers))
	for i, c := range centers {
		boxes[i] = geom.AABB{Min: c.Subtract(geom.NewVec3(1, 1, 1)), Max: c.Add(geom.NewVec3(1, 1, 1))}
	}
	return boxes
}

func mustRay(t *testing.T, origin, dir geom.Vec3, length float64) geom.Ray {
	t.Helper()
	r, err := geom.NewRay(origin, dir, length)
	require.NoError(t, err)
	return r
}

func TestFlat(t *testing.T) {
	t.Run("TwoBoxes", func(t *testing.T) {
		f, err := New(unitCubes(geom.NewVec3(5, 0, 0), geom.NewVec3(10, 0, 0)))
		require.NoError(t, err)
		assert.Equal(t, 2, f.Len())
		assert.Equal(t, "Flat", f.Name())

		segs := f.Query(mustRay(t, geom.Vec3{}, geom.NewVec3(1, 0, 0), 20))
		require.Len(t, segs, 2)
		assert.Equal(t, index.Segment{Cell: 0, TEnter: 4, TExit: 6}, segs[0])
		assert.Equal(t, index.Segment{Cell: 1, TEnter: 9, TExit: 11}, segs[1])

		first, ok := f.FirstHit(mustRay(t, geom.Vec3{}, geom.NewVec3(1, 0, 0), 20))
		require.True(t, ok)
		assert.Equal(t, segs[0], first)
	})

	t.Run("ReverseDirectionOrdersByEntry", func(t *testing.T) {
		f, err := New(unitCubes(geom.NewVec3(5, 0, 0), geom.NewVec3(10, 0, 0)))
		require.NoError(t, err)

		segs := f.Query(mustRay(t, geom.NewVec3(15, 0, 0), geom.NewVec3(-1, 0, 0), 20))
		assert.Equal(t, []index.CellID{1, 0}, segs.CellIDs())
	})

	t.Run("Empty", func(t *testing.T) {
		f, err := New(nil)
		require.NoError(t, err)

		assert.Empty(t, f.Query(mustRay(t, geom.Vec3{}, geom.NewVec3(1, 0, 0), 10)))
		_, ok := f.FirstHit(mustRay(t, geom.Vec3{}, geom.NewVec3(1, 0, 0), 10))
		assert.False(t, ok)

		_, err = f.Bounds()
		assert.ErrorIs(t, err, index.ErrEmptyIndex)
	})

	t.Run("ZeroRay", func(t *testing.T) {
		f, err := New(unitCubes(geom.Vec3{}))
		require.NoError(t, err)
		assert.Empty(t, f.Query(geom.Ray{}))
	})

	t.Run("InvalidBox", func(t *testing.T) {
		boxes := unitCubes(geom.Vec3{})
		boxes = append(boxes, geom.AABB{Min: geom.NewVec3(1, 0, 0), Max: geom.NewVec3(0, 1, 1)})

		_, err := New(boxes)
		require.Error(t, err)
		assert.ErrorIs(t, err, geom.ErrInvalidArgument)
		assert.Contains(t, err.Error(), "cell 1")
	})

	t.Run("QueryIntoKeepsPrefix", func(t *testing.T) {
		f, err := New(unitCubes(geom.NewVec3(5, 0, 0)))
		require.NoError(t, err)

		prefix := index.Segments{{Cell: 99, TEnter: 100, TExit: 101}}
		out := f.QueryInto(mustRay(t, geom.Vec3{}, geom.NewVec3(1, 0, 0), 20), prefix)
		require.Len(t, out, 2)
		assert.Equal(t, index.CellID(99), out[0].Cell)
		assert.Equal(t, index.CellID(0), out[1].Cell)
	})

	t.Run("DoesNotAliasInput", func(t *testing.T) {
		boxes := unitCubes(geom.NewVec3(5, 0, 0))
		f, err := New(boxes)
		require.NoError(t, err)

		boxes[0] = unitCubes(geom.NewVec3(50, 0, 0))[0]
		box, err := f.Box(0)
		require.NoError(t, err)
		assert.Equal(t, geom.NewVec3(4, -1, -1), box.Min)
	})
}
