// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "sim-output",
//	    func(o *s3.Options) {
//	        o.Prefix = "runs/L25N512/"
//	        o.Region = "eu-central-1"
//	    },
//	)
//
//	snap, err := snapshot.Load(ctx, store, "snap_099.cells")
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large snapshots with CRC32C checksums
//   - Automatic pagination for listing
//   - Configurable prefix for sharing one bucket between runs
//   - Objects tagged with their snapshot format (see blobstore.FormatOf)
package s3
