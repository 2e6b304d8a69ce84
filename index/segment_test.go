package index

import (
	"errors"
	"testing"

	"github.com/hupe1980/sightline/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSegments(t *testing.T) {
	t.Run("SortByEntryThenCell", func(t *testing.T) {
		segs := Segments{
			{Cell: 7, TEnter: 2, TExit: 3},
			{Cell: 3, TEnter: 1, TExit: 2},
			{Cell: 1, TEnter: 2, TExit: 4},
			{Cell: 0, TEnter: 0, TExit: 1},
		}
		assert.False(t, segs.IsSorted())

		segs.Sort()

		assert.True(t, segs.IsSorted())
		assert.Equal(t, []CellID{0, 3, 1, 7}, segs.CellIDs())
	})

	t.Run("PathLength", func(t *testing.T) {
		segs := Segments{
			{Cell: 0, TEnter: 0, TExit: 1.5},
			{Cell: 1, TEnter: 1.5, TExit: 4},
		}
		assert.InDelta(t, 4.0, segs.PathLength(), 1e-12)
		assert.InDelta(t, 2.5, segs[1].Length(), 1e-12)
	})

	t.Run("CellSet", func(t *testing.T) {
		segs := Segments{
			{Cell: 4}, {Cell: 2}, {Cell: 4},
		}
		rb := segs.CellSet()
		assert.Equal(t, uint64(2), rb.GetCardinality())
		assert.Equal(t, []uint32{2, 4}, rb.ToArray())
	})

	t.Run("Empty", func(t *testing.T) {
		var segs Segments
		assert.True(t, segs.IsSorted())
		assert.Zero(t, segs.PathLength())
		assert.True(t, segs.CellSet().IsEmpty())
	})
}

func TestBoxHelpers(t *testing.T) {
	boxes := []geom.AABB{
		{Min: geom.NewVec3(0, 0, 0), Max: geom.NewVec3(1, 1, 1)},
		{Min: geom.NewVec3(2, -1, 0), Max: geom.NewVec3(3, 1, 5)},
	}

	t.Run("Bounds", func(t *testing.T) {
		b, err := Bounds(boxes)
		require.NoError(t, err)
		assert.Equal(t, geom.NewVec3(0, -1, 0), b.Min)
		assert.Equal(t, geom.NewVec3(3, 1, 5), b.Max)

		_, err = Bounds(nil)
		assert.ErrorIs(t, err, ErrEmptyIndex)
	})

	t.Run("CheckBox", func(t *testing.T) {
		b, err := CheckBox(boxes, 1)
		require.NoError(t, err)
		assert.Equal(t, boxes[1], b)

		for _, id := range []CellID{2, NoCell} {
			_, err = CheckBox(boxes, id)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrOutOfRange)

			var rangeErr *ErrCellOutOfRange
			require.True(t, errors.As(err, &rangeErr))
			assert.Equal(t, id, rangeErr.ID)
			assert.Equal(t, 2, rangeErr.Count)
		}
	})
}
