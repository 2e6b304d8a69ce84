// Package sightline computes which simulation cells a straight sightline
// crosses, in what order and over what path length, and samples the ray for
// synthetic absorption spectra.
//
// The cell boxes of a snapshot are indexed once by a bounding-volume
// hierarchy; every ray query afterwards is lock-free and may run
// concurrently.
//
// # Quick Start
//
//	ctx := context.Background()
//	eng, _ := sightline.Open(ctx, blobstore.NewLocalStore("./data"), "snap_099.json")
//	defer eng.Close()
//
//	segs, _ := eng.Query(ctx, geom.Vec3{}, geom.Vec3{X: 1}, 10)
//	for _, s := range segs {
//	    fields, _ := eng.Fields(s.Cell)
//	    fmt.Println(s.Cell, s.Length(), fields["density"])
//	}
//
// # Sampling
//
// Trace samples n evenly spaced points; TraceCells places samples at every
// cell boundary so each interval has exactly one owning cell:
//
//	sl, _ := eng.TraceCells(ctx, origin, direction, length, sampler.Metadata{})
//	spec, _ := spectrum.Synthesize(sl, spectrum.ParseLines("HI 1216"))
//
// # Batches
//
// Batch runs many independent rays on a worker pool, preserving input order.
// A malformed ray fails only its own result:
//
//	results, err := eng.Batch(ctx, reqs)
//
// # Storage
//
// Snapshots are read through blobstore.BlobStore, so local disk, memory,
// S3 and MinIO are interchangeable:
//
//	store, _ := s3.New(ctx, "sim-output")
//	eng, _ := sightline.Open(ctx, store, "L25N512/snap_099.cells")
package sightline
