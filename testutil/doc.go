// Package testutil provides testing utilities for sightline.
//
// This package is intended for use in tests and benchmarks only.
// It provides helpers for generating random cells and rays, regular grid
// tilings, and comparing query results against a reference index.
//
// # Random Cells
//
//	rng := testutil.NewRNG(seed)
//	boxes := rng.RandomCubes(1000, bounds, 0.01, 0.05)
//	grid := testutil.GridTiling(bounds, 16, 16, 16)
//
// # Rays
//
//	rays := rng.RandomRays(100, bounds)
//
// # Oracle Comparison
//
//	missing, extra := testutil.DiffCells(bvhSegments, flatSegments)
package testutil
