package bvh

import (
	"context"
	"testing"

	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
	"github.com/hupe1980/sightline/index/flat"
	"github.com/hupe1980/sightline/resource"
	"github.com/hupe1980/sightline/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRay(t testing.TB, origin, dir geom.Vec3, length float64) geom.Ray {
	t.Helper()
	r, err := geom.NewRay(origin, dir, length)
	require.NoError(t, err)
	return r
}

func unitCube(center geom.Vec3) geom.AABB {
	half := geom.NewVec3(1, 1, 1)
	return geom.AABB{Min: center.Subtract(half), Max: center.Add(half)}
}

func TestBVH_Scenarios(t *testing.T) {
	tree, err := New([]geom.AABB{unitCube(geom.NewVec3(5, 0, 0))})
	require.NoError(t, err)

	t.Run("Hit", func(t *testing.T) {
		segs := tree.Query(mustRay(t, geom.Vec3{}, geom.NewVec3(1, 0, 0), 10))
		require.Len(t, segs, 1)
		assert.Equal(t, index.Segment{Cell: 0, TEnter: 4, TExit: 6}, segs[0])
	})

	t.Run("Perpendicular", func(t *testing.T) {
		segs := tree.Query(mustRay(t, geom.Vec3{}, geom.NewVec3(0, 1, 0), 10))
		assert.Empty(t, segs)
	})

	t.Run("ZeroRay", func(t *testing.T) {
		assert.Empty(t, tree.Query(geom.Ray{}))
		_, ok := tree.FirstHit(geom.Ray{})
		assert.False(t, ok)
	})
}

func TestBVH_Empty(t *testing.T) {
	tree, err := New(nil)
	require.NoError(t, err)

	assert.Equal(t, 0, tree.Len())
	assert.Empty(t, tree.Query(mustRay(t, geom.Vec3{}, geom.NewVec3(1, 0, 0), 10)))

	_, ok := tree.FirstHit(mustRay(t, geom.Vec3{}, geom.NewVec3(1, 0, 0), 10))
	assert.False(t, ok)

	_, err = tree.Bounds()
	assert.ErrorIs(t, err, index.ErrEmptyIndex)
	assert.NoError(t, tree.Validate())
}

func TestBVH_Options(t *testing.T) {
	boxes := []geom.AABB{unitCube(geom.Vec3{})}

	for _, leaf := range []int{0, -1, MaxLeafSize + 1} {
		_, err := New(boxes, func(o *Options) { o.LeafSize = leaf })
		assert.ErrorIs(t, err, geom.ErrInvalidArgument, "leaf size %d", leaf)
	}

	_, err := New(boxes, func(o *Options) { o.Split = SplitMethod(7) })
	assert.ErrorIs(t, err, geom.ErrInvalidArgument)

	tree, err := New(boxes, func(o *Options) { o.LeafSize = 1 })
	require.NoError(t, err)
	assert.Equal(t, 1, tree.Options().LeafSize)
}

func TestBVH_InvalidBox(t *testing.T) {
	boxes := []geom.AABB{
		unitCube(geom.Vec3{}),
		unitCube(geom.NewVec3(3, 0, 0)),
		{Min: geom.NewVec3(0, 2, 0), Max: geom.NewVec3(1, 1, 1)},
	}

	_, err := New(boxes)
	require.Error(t, err)
	assert.ErrorIs(t, err, geom.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "cell 2")
}

func TestBVH_LeafThreshold(t *testing.T) {
	rng := testutil.NewRNG(1)
	bounds := geom.AABB{Max: geom.NewVec3(10, 10, 10)}

	t.Run("AtThresholdIsSingleLeaf", func(t *testing.T) {
		tree, err := New(rng.RandomCubes(8, bounds, 0.1, 0.5))
		require.NoError(t, err)

		stats := tree.Stats()
		assert.Equal(t, 1, stats.Nodes)
		assert.Equal(t, 1, stats.Leaves)
		assert.Equal(t, 8, stats.MaxLeafSize)
	})

	t.Run("AboveThresholdSplits", func(t *testing.T) {
		tree, err := New(rng.RandomCubes(9, bounds, 0.1, 0.5))
		require.NoError(t, err)

		stats := tree.Stats()
		assert.Equal(t, 3, stats.Nodes)
		assert.Equal(t, 2, stats.Leaves)
		assert.LessOrEqual(t, stats.MaxLeafSize, 8)
		require.NoError(t, tree.Validate())
	})

	t.Run("LeafSizeRespected", func(t *testing.T) {
		for _, leaf := range []int{1, 4, 8, 64} {
			tree, err := New(rng.RandomCubes(500, bounds, 0.1, 0.5), func(o *Options) { o.LeafSize = leaf })
			require.NoError(t, err)
			assert.LessOrEqual(t, tree.Stats().MaxLeafSize, leaf)
			require.NoError(t, tree.Validate())
		}
	})
}

func TestBVH_CoincidentCentroids(t *testing.T) {
	// Nested boxes share a center; the split falls back to box extent.
	boxes := make([]geom.AABB, 20)
	for i := range boxes {
		h := float64(i + 1)
		boxes[i] = geom.AABB{Min: geom.NewVec3(-h, -2*h, -h), Max: geom.NewVec3(h, 2*h, h)}
	}

	tree, err := New(boxes, func(o *Options) { o.LeafSize = 2 })
	require.NoError(t, err)
	require.NoError(t, tree.Validate())
	assert.Equal(t, uint8(1), tree.nodes[0].axis)

	segs := tree.Query(mustRay(t, geom.NewVec3(-100, 0, 0), geom.NewVec3(1, 0, 0), 200))
	assert.Len(t, segs, 20)
	assert.True(t, segs.IsSorted())
}

func TestBVH_MatchesBruteForce(t *testing.T) {
	bounds := geom.AABB{Max: geom.NewVec3(20, 20, 20)}
	rng := testutil.NewRNG(4711)

	cellSets := map[string][]geom.AABB{
		"RandomUnitCubes": rng.RandomCubes(1000, bounds, 0.5, 0.5),
		"RandomMixed":     rng.RandomCubes(2000, bounds, 0.05, 1.5),
		"Clustered":       rng.ClusteredCubes(2000, 5, bounds, 1.5, 0.4),
		"Grid":            testutil.GridTiling(bounds, 12, 12, 12),
	}

	splits := []SplitMethod{SplitMedian, SplitSAH}

	for name, boxes := range cellSets {
		oracle, err := flat.New(boxes)
		require.NoError(t, err)

		rays := append(rng.RandomRays(100, bounds), rng.AxisRays(50, bounds)...)

		for _, split := range splits {
			t.Run(name+"/"+split.String(), func(t *testing.T) {
				tree, err := New(boxes, func(o *Options) { o.Split = split })
				require.NoError(t, err)
				require.NoError(t, tree.Validate())

				for _, ray := range rays {
					got := tree.Query(ray)
					want := oracle.Query(ray)

					missing, extra := testutil.DiffCells(got, want)
					require.True(t, missing.IsEmpty(), "ray %v missing cells %v", ray, missing.ToArray())
					require.True(t, extra.IsEmpty(), "ray %v extra cells %v", ray, extra.ToArray())
					require.Equal(t, want, got)

					for _, s := range got {
						require.GreaterOrEqual(t, s.TEnter, 0.0)
						require.LessOrEqual(t, s.TEnter, s.TExit)
						require.LessOrEqual(t, s.TExit, ray.Length())
					}

					first, ok := tree.FirstHit(ray)
					wantFirst, wantOK := oracle.FirstHit(ray)
					require.Equal(t, wantOK, ok)
					require.Equal(t, wantFirst, first)
					if ok {
						require.Equal(t, got[0], first)
					}
				}
			})
		}
	}
}

func TestBVH_GridTilingCoversPath(t *testing.T) {
	bounds := geom.AABB{Max: geom.NewVec3(8, 8, 8)}
	tree, err := New(testutil.GridTiling(bounds, 8, 8, 8))
	require.NoError(t, err)

	// A ray along the x axis through cell centers crosses 8 cells end to end.
	ray := mustRay(t, geom.NewVec3(0, 0.5, 0.5), geom.NewVec3(1, 0, 0), 8)
	segs := tree.Query(ray)

	require.Len(t, segs, 8)
	assert.InDelta(t, 8.0, segs.PathLength(), 1e-9)
	for i, s := range segs {
		assert.Equal(t, index.CellID(i), s.Cell)
		assert.InDelta(t, float64(i), s.TEnter, 1e-12)
	}
}

func TestBVH_Deterministic(t *testing.T) {
	rng := testutil.NewRNG(99)
	bounds := geom.AABB{Max: geom.NewVec3(50, 50, 50)}
	boxes := rng.RandomCubes(20000, bounds, 0.1, 0.6)

	for _, split := range []SplitMethod{SplitMedian, SplitSAH} {
		t.Run(split.String(), func(t *testing.T) {
			serial, err := New(boxes, func(o *Options) { o.Split = split })
			require.NoError(t, err)

			again, err := New(boxes, func(o *Options) { o.Split = split })
			require.NoError(t, err)

			parallel, err := New(boxes, func(o *Options) {
				o.Split = split
				o.Workers = 4
				o.ParallelThreshold = 256
			})
			require.NoError(t, err)

			assert.Equal(t, serial.nodes, again.nodes)
			assert.Equal(t, serial.order, again.order)
			assert.Equal(t, serial.nodes, parallel.nodes)
			assert.Equal(t, serial.order, parallel.order)
			assert.Equal(t, serial.Stats(), parallel.Stats())
			require.NoError(t, parallel.Validate())
		})
	}
}

func TestBVH_ParallelWorkerSlots(t *testing.T) {
	rng := testutil.NewRNG(9)
	boxes := rng.RandomCubes(5000, geom.AABB{Max: geom.NewVec3(10, 10, 10)}, 0.05, 0.2)

	serial, err := New(boxes)
	require.NoError(t, err)

	rc := resource.NewController(resource.Config{MaxWorkers: 2})
	parallel, err := New(boxes, func(o *Options) {
		o.Workers = 4
		o.ParallelThreshold = 128
		o.Resource = rc
	})
	require.NoError(t, err)

	assert.Equal(t, serial.nodes, parallel.nodes)
	assert.Equal(t, serial.order, parallel.order)

	// Every slot is returned once the build finishes.
	assert.True(t, rc.TryAcquireWorker())
	assert.True(t, rc.TryAcquireWorker())
	assert.False(t, rc.TryAcquireWorker())
}

func TestBVH_DoesNotAliasInput(t *testing.T) {
	boxes := []geom.AABB{unitCube(geom.NewVec3(5, 0, 0))}
	tree, err := New(boxes)
	require.NoError(t, err)

	boxes[0] = unitCube(geom.NewVec3(50, 0, 0))

	segs := tree.Query(mustRay(t, geom.Vec3{}, geom.NewVec3(1, 0, 0), 10))
	require.Len(t, segs, 1)
	assert.InDelta(t, 4.0, segs[0].TEnter, 1e-12)
}

func TestBVH_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rng := testutil.NewRNG(3)
	_, err := Build(ctx, rng.RandomCubes(100, geom.AABB{Max: geom.NewVec3(1, 1, 1)}, 0.01, 0.02))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBVH_MemoryLimit(t *testing.T) {
	rng := testutil.NewRNG(5)
	boxes := rng.RandomCubes(1000, geom.AABB{Max: geom.NewVec3(1, 1, 1)}, 0.01, 0.02)

	t.Run("Exceeded", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 1024})

		_, err := Build(context.Background(), boxes, func(o *Options) { o.Resource = rc })
		assert.ErrorIs(t, err, resource.ErrMemoryLimit)
		assert.Zero(t, rc.MemoryUsage())
	})

	t.Run("ReservedUntilClose", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})

		tree, err := Build(context.Background(), boxes, func(o *Options) { o.Resource = rc })
		require.NoError(t, err)
		assert.Equal(t, EstimateMemory(len(boxes), 8), rc.MemoryUsage())

		require.NoError(t, tree.Close())
		assert.Zero(t, rc.MemoryUsage())
	})

	t.Run("ReleasedOnFailedBuild", func(t *testing.T) {
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 1 << 30})
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := Build(ctx, boxes, func(o *Options) { o.Resource = rc })
		require.Error(t, err)
		assert.Zero(t, rc.MemoryUsage())
	})
}

func TestBVH_QueryIntoReusesBuffer(t *testing.T) {
	bounds := geom.AABB{Max: geom.NewVec3(4, 4, 4)}
	tree, err := New(testutil.GridTiling(bounds, 4, 4, 4))
	require.NoError(t, err)

	ray := mustRay(t, geom.NewVec3(0, 0.5, 0.5), geom.NewVec3(1, 0, 0), 4)
	buf := make(index.Segments, 0, 16)

	buf = tree.QueryInto(ray, buf[:0])
	assert.Len(t, buf, 4)
	buf = tree.QueryInto(ray, buf[:0])
	assert.Len(t, buf, 4)
	assert.Equal(t, 16, cap(buf))
}
