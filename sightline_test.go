package sightline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/sightline"
	"github.com/hupe1980/sightline/blobstore"
	"github.com/hupe1980/sightline/engine"
	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
	"github.com/hupe1980/sightline/index/bvh"
	"github.com/hupe1980/sightline/index/flat"
	"github.com/hupe1980/sightline/resource"
	"github.com/hupe1980/sightline/sampler"
	"github.com/hupe1980/sightline/snapshot"
	"github.com/hupe1980/sightline/testutil"
)

const mockSnapshot = `{
  "cells": {
    "center": [[0.5, 0.0, 0.0], [2.0, 0.0, 0.0], [4.0, 0.0, 0.0], [1.0, 3.0, 0.0]],
    "half_size": [0.5, 1.0, [0.5, 0.25, 0.25], 0.5],
    "fields": {
      "density": [1.0, 2.5, 0.3, 7.0],
      "temperature": [10000.0, null, 20000.0, 15000.0]
    }
  },
  "meta": {"box_size": 5.0, "redshift": 2.0}
}`

func openMock(t *testing.T, opts ...sightline.Option) *sightline.Engine {
	t.Helper()

	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	require.NoError(t, store.Put(ctx, "snap.json", []byte(mockSnapshot)))

	eng, err := sightline.Open(ctx, store, "snap.json", opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Close() })

	return eng
}

var (
	origin = geom.Vec3{X: -1}
	xAxis  = geom.Vec3{X: 1}
)

func TestEngine(t *testing.T) {
	ctx := context.Background()

	t.Run("Query", func(t *testing.T) {
		eng := openMock(t)
		assert.Equal(t, 4, eng.Len())

		segs, err := eng.Query(ctx, origin, xAxis, 10)
		require.NoError(t, err)
		require.Len(t, segs, 3)

		assert.Equal(t, index.CellID(0), segs[0].Cell)
		assert.InDelta(t, 1.0, segs[0].TEnter, 1e-12)
		assert.InDelta(t, 2.0, segs[0].TExit, 1e-12)
		assert.Equal(t, index.CellID(1), segs[1].Cell)
		assert.InDelta(t, 4.0, segs[1].TExit, 1e-12)
		assert.Equal(t, index.CellID(2), segs[2].Cell)
		assert.InDelta(t, 4.5, segs[2].TEnter, 1e-12)
		assert.True(t, segs.IsSorted())
	})

	t.Run("QueryShortRay", func(t *testing.T) {
		eng := openMock(t)

		segs, err := eng.Query(ctx, origin, xAxis, 1.5)
		require.NoError(t, err)
		require.Len(t, segs, 1)
		assert.InDelta(t, 1.5, segs[0].TExit, 1e-12)
	})

	t.Run("FirstHit", func(t *testing.T) {
		eng := openMock(t)

		seg, ok, err := eng.FirstHit(ctx, origin, xAxis, 10)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, index.CellID(0), seg.Cell)

		_, ok, err = eng.FirstHit(ctx, geom.Vec3{Z: 10}, xAxis, 10)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("ZeroDirection", func(t *testing.T) {
		eng := openMock(t)

		_, err := eng.Query(ctx, origin, geom.Vec3{}, 10)
		require.ErrorIs(t, err, sightline.ErrInvalidArgument)
		assert.ErrorIs(t, err, geom.ErrInvalidArgument)
	})

	t.Run("Trace", func(t *testing.T) {
		eng := openMock(t)

		sl, err := eng.Trace(ctx, origin, xAxis, 10, 2, sampler.Metadata{ResolutionKMS: 20})
		require.NoError(t, err)
		require.Equal(t, 2, sl.Len())
		assert.Equal(t, origin, sl.Positions[0])
		assert.InDelta(t, 9.0, sl.Positions[1].X, 1e-12)
		assert.Equal(t, 10.0, sl.T[1])
		assert.Equal(t, index.NoCell, sl.Cells[0])
		assert.Equal(t, 20.0, sl.Metadata.ResolutionKMS)

		_, err = eng.Trace(ctx, origin, xAxis, 10, 1, sampler.Metadata{})
		assert.ErrorIs(t, err, sightline.ErrInvalidArgument)
	})

	t.Run("TraceTooManySamples", func(t *testing.T) {
		eng := openMock(t)

		_, err := eng.Trace(ctx, origin, xAxis, 10, sampler.MaxSamples+1, sampler.Metadata{})
		assert.ErrorIs(t, err, sightline.ErrInvalidArgument)
		assert.ErrorIs(t, err, sampler.ErrTooManySamples)
	})

	t.Run("TraceCells", func(t *testing.T) {
		eng := openMock(t)

		sl, err := eng.TraceCells(ctx, origin, xAxis, 10, sampler.Metadata{})
		require.NoError(t, err)
		assert.Len(t, sl.Segments, 3)
		assert.NotZero(t, sl.Len())
		assert.Equal(t, sl.Len(), len(sl.Cells))
		assert.Contains(t, sl.Cells, index.CellID(1))
	})

	t.Run("Fields", func(t *testing.T) {
		eng := openMock(t)

		f, err := eng.Fields(1)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"density": 2.5}, f)

		_, err = eng.Fields(99)
		require.ErrorIs(t, err, sightline.ErrOutOfRangeCellID)

		var oor *sightline.ErrCellOutOfRange
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, index.CellID(99), oor.ID)
		assert.Equal(t, 4, oor.Count)
	})

	t.Run("WithFields", func(t *testing.T) {
		eng := openMock(t, sightline.WithFields("temperature"))

		f, err := eng.Fields(2)
		require.NoError(t, err)
		assert.Equal(t, map[string]float64{"temperature": 20000}, f)
		assert.Equal(t, []string{"temperature"}, eng.Snapshot().Header.RequestedFields)
	})

	t.Run("BoundsAndBox", func(t *testing.T) {
		eng := openMock(t)

		b, err := eng.Bounds()
		require.NoError(t, err)
		assert.Equal(t, 0.0, b.Min.X)
		assert.Equal(t, 4.5, b.Max.X)
		assert.Equal(t, 3.5, b.Max.Y)

		box, err := eng.Box(3)
		require.NoError(t, err)
		assert.Equal(t, geom.Vec3{X: 1, Y: 3}, box.Center())

		_, err = eng.Box(4)
		assert.ErrorIs(t, err, sightline.ErrOutOfRangeCellID)

		require.NoError(t, eng.Validate())
	})
}

func TestEngine_Empty(t *testing.T) {
	ctx := context.Background()

	eng, err := sightline.New(ctx, nil)
	require.NoError(t, err)
	defer eng.Close()

	_, err = eng.Bounds()
	require.ErrorIs(t, err, sightline.ErrEmptyIndex)

	segs, err := eng.Query(ctx, origin, xAxis, 10)
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestEngine_MatchesOracle(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(7)
	bounds := geom.AABB{Max: geom.Vec3{X: 10, Y: 10, Z: 10}}
	boxes := rng.RandomCubes(500, bounds, 0.05, 0.5)

	oracle, err := flat.New(boxes)
	require.NoError(t, err)

	for _, split := range []bvh.SplitMethod{bvh.SplitMedian, bvh.SplitSAH} {
		t.Run(split.String(), func(t *testing.T) {
			eng, err := sightline.New(ctx, boxes, sightline.WithIndexOptions(func(o *bvh.Options) {
				o.Split = split
				o.LeafSize = 4
			}))
			require.NoError(t, err)
			defer eng.Close()

			for _, ray := range rng.RandomRays(50, bounds) {
				got, err := eng.Query(ctx, ray.Origin(), ray.Direction(), ray.Length())
				require.NoError(t, err)

				missing, extra := testutil.DiffCells(got, oracle.Query(ray))
				assert.True(t, missing.IsEmpty(), "missing cells %v", missing)
				assert.True(t, extra.IsEmpty(), "extra cells %v", extra)
			}
		})
	}
}

func TestEngine_Batch(t *testing.T) {
	ctx := context.Background()

	reqs := []engine.Request{
		{Origin: origin, Direction: xAxis, Length: 10, Output: engine.OutputSegments},
		{Origin: origin, Direction: geom.Vec3{}, Length: 10},
		{Origin: origin, Direction: xAxis, Length: 10, Samples: 1},
		{Origin: origin, Direction: xAxis, Length: 10, CellAware: true},
		{Origin: origin, Direction: xAxis, Length: 10, Samples: 16},
	}

	t.Run("Run", func(t *testing.T) {
		metrics := &sightline.BasicMetricsCollector{}
		eng := openMock(t, sightline.WithMetricsCollector(metrics), sightline.WithWorkers(2))
		assert.Equal(t, 2, eng.Workers())

		results, err := eng.Batch(ctx, reqs)
		require.NoError(t, err)
		require.Len(t, results, len(reqs))

		for i, res := range results {
			assert.Equal(t, i, res.Index)
		}
		assert.NoError(t, results[0].Err)
		assert.Len(t, results[0].Segments, 3)
		assert.ErrorIs(t, results[1].Err, sightline.ErrInvalidArgument)
		assert.ErrorIs(t, results[2].Err, sightline.ErrInvalidArgument)
		require.NoError(t, results[3].Err)
		assert.NotNil(t, results[3].Sightline)
		require.NoError(t, results[4].Err)
		assert.Equal(t, 16, results[4].Sightline.Len())

		stats := metrics.GetStats()
		assert.Equal(t, int64(1), stats.LoadCount)
		assert.Equal(t, int64(1), stats.BuildCount)
		assert.Equal(t, int64(1), stats.BatchCount)
		assert.Equal(t, int64(len(reqs)), stats.BatchRays)
		assert.Equal(t, int64(2), stats.BatchFailed)
		assert.Equal(t, int64(len(reqs)), stats.QueryCount)
		assert.Equal(t, int64(2), stats.QueryErrors)
	})

	t.Run("Stream", func(t *testing.T) {
		eng := openMock(t)

		i := 0
		for res, err := range eng.Stream(ctx, reqs) {
			assert.Equal(t, i, res.Index)
			assert.Equal(t, res.Err, err)
			i++
		}
		assert.Equal(t, len(reqs), i)
	})

	t.Run("Canceled", func(t *testing.T) {
		eng := openMock(t)

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		results, err := eng.Batch(cctx, reqs)
		require.ErrorIs(t, err, context.Canceled)
		require.Len(t, results, len(reqs))
		for _, res := range results {
			assert.ErrorIs(t, res.Err, context.Canceled)
		}
	})
}

func TestEngine_Close(t *testing.T) {
	ctx := context.Background()
	rc := resource.NewController(resource.Config{})

	eng, err := sightline.New(ctx, testutil.GridTiling(geom.AABB{Max: geom.Vec3{X: 4, Y: 4, Z: 4}}, 4, 4, 4),
		sightline.WithResourceController(rc))
	require.NoError(t, err)
	assert.Positive(t, rc.MemoryUsage())

	require.NoError(t, eng.Close())
	require.NoError(t, eng.Close())
	assert.Zero(t, rc.MemoryUsage())

	_, err = eng.Query(ctx, origin, xAxis, 10)
	assert.ErrorIs(t, err, sightline.ErrClosed)
	_, err = eng.Fields(0)
	assert.ErrorIs(t, err, sightline.ErrClosed)
	_, err = eng.Batch(ctx, nil)
	assert.ErrorIs(t, err, sightline.ErrClosed)

	for _, err := range eng.Stream(ctx, nil) {
		assert.ErrorIs(t, err, sightline.ErrClosed)
	}
}

func TestOpen_Errors(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()

	t.Run("NotFound", func(t *testing.T) {
		metrics := &sightline.BasicMetricsCollector{}
		_, err := sightline.Open(ctx, store, "missing.json", sightline.WithMetricsCollector(metrics))
		require.ErrorIs(t, err, sightline.ErrNotFound)
		assert.Equal(t, int64(1), metrics.GetStats().LoadErrors)
	})

	t.Run("UnsupportedFormat", func(t *testing.T) {
		_, err := sightline.Open(ctx, store, "snap_099.hdf5")
		assert.ErrorIs(t, err, sightline.ErrUnsupportedFormat)
	})

	t.Run("MemoryLimit", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "snap.json", []byte(mockSnapshot)))
		rc := resource.NewController(resource.Config{MemoryLimitBytes: 1})

		_, err := sightline.Open(ctx, store, "snap.json", sightline.WithResourceController(rc))
		assert.ErrorIs(t, err, sightline.ErrMemoryLimit)
	})

	t.Run("FieldMismatch", func(t *testing.T) {
		snap := snapshot.New([]geom.AABB{{Max: geom.Vec3{X: 1, Y: 1, Z: 1}}})
		snap.Fields = snapshot.NewFieldTable(2)

		_, err := sightline.FromSnapshot(ctx, snap)
		assert.ErrorIs(t, err, sightline.ErrInvalidArgument)
	})

	t.Run("InvalidBox", func(t *testing.T) {
		_, err := sightline.New(ctx, []geom.AABB{{Min: geom.Vec3{X: 1}}})
		assert.True(t, errors.Is(err, sightline.ErrInvalidArgument))
	})
}

func TestOpen_Cells(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewLocalStore(t.TempDir())

	src := blobstore.NewMemoryStore()
	require.NoError(t, src.Put(ctx, "snap.json", []byte(mockSnapshot)))
	snap, err := snapshot.Load(ctx, src, "snap.json")
	require.NoError(t, err)
	require.NoError(t, snapshot.Save(ctx, store, "snap.cells", snap))

	eng, err := sightline.Open(ctx, store, "snap.cells")
	require.NoError(t, err)
	defer eng.Close()

	segs, err := eng.Query(ctx, origin, xAxis, 10)
	require.NoError(t, err)
	assert.Equal(t, []index.CellID{0, 1, 2}, segs.CellIDs())

	f, err := eng.Fields(0)
	require.NoError(t, err)
	assert.Equal(t, 10000.0, f["temperature"])
}
