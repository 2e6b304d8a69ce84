package testutil

import (
	"testing"

	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
	"github.com/stretchr/testify/assert"
)

var unitBounds = geom.AABB{Min: geom.NewVec3(0, 0, 0), Max: geom.NewVec3(1, 1, 1)}

func TestRandomCubes(t *testing.T) {
	rng := NewRNG(4711)

	boxes := rng.RandomCubes(100, unitBounds, 0.01, 0.05)

	assert.Len(t, boxes, 100)
	for _, b := range boxes {
		assert.True(t, b.IsValid())
		assert.True(t, unitBounds.Contains(b.Center()))
	}
}

func TestClusteredCubes(t *testing.T) {
	rng := NewRNG(4711)

	boxes := rng.ClusteredCubes(200, 4, unitBounds, 0.05, 0.02)

	assert.Len(t, boxes, 200)
	for _, b := range boxes {
		assert.True(t, b.IsValid())
	}
}

func TestRandomRays(t *testing.T) {
	rng := NewRNG(4711)

	rays := rng.RandomRays(50, unitBounds)

	assert.Len(t, rays, 50)
	for _, r := range rays {
		assert.False(t, r.IsZero())
		assert.InDelta(t, 1.0, r.Direction().Length(), 1e-12)
		assert.True(t, unitBounds.Contains(r.Origin()))
	}
}

func TestAxisRays(t *testing.T) {
	rng := NewRNG(4711)

	for _, r := range rng.AxisRays(20, unitBounds) {
		d := r.Direction()
		zeros := 0
		for axis := 0; axis < 3; axis++ {
			if d.Axis(axis) == 0 {
				zeros++
			}
		}
		assert.Equal(t, 2, zeros)
	}
}

func TestGridTiling(t *testing.T) {
	boxes := GridTiling(unitBounds, 2, 3, 4)

	assert.Len(t, boxes, 24)
	assert.Equal(t, geom.NewVec3(0, 0, 0), boxes[0].Min)
	assert.InDelta(t, 0.5, boxes[1].Min.X, 1e-12)

	var volume float64
	for _, b := range boxes {
		s := b.Size()
		volume += s.X * s.Y * s.Z
	}
	assert.InDelta(t, 1.0, volume, 1e-9)
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	b1 := rng.RandomCubes(3, unitBounds, 0.1, 0.2)

	rng.Reset()
	b2 := rng.RandomCubes(3, unitBounds, 0.1, 0.2)

	assert.Equal(t, b1, b2)
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestDiffCells(t *testing.T) {
	got := index.Segments{{Cell: 1}, {Cell: 2}, {Cell: 5}}
	want := index.Segments{{Cell: 2}, {Cell: 3}, {Cell: 5}}

	missing, extra := DiffCells(got, want)

	assert.Equal(t, []uint32{3}, missing.ToArray())
	assert.Equal(t, []uint32{1}, extra.ToArray())
}
