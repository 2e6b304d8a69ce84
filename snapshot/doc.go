// Package snapshot loads simulation cell snapshots from a blobstore.BlobStore.
//
// Two formats are understood, selected by file extension:
//
//   - .json: the mock document
//     {"cells": {"center": [[x,y,z]...], "half_size": [h | [hx,hy,hz]...],
//     "fields": {"density": [...]}}, "meta": {...}}
//   - .cells: a compact binary format (magic "SLCELLS1") whose box and field
//     columns are stored as LZ4 or ZSTD compressed blocks
//
// HDF5 snapshots (.h5, .hdf5) are recognized but not supported.
//
//	snap, err := snapshot.Load(ctx, blobstore.NewLocalStore("data"), "snap_099.cells",
//	    snapshot.WithFields("density", "temperature"),
//	)
//	idx, err := bvh.Build(ctx, snap.Boxes)
//	fields, err := snap.Fields.Fields(seg.Cell)
package snapshot
