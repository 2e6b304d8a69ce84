// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible object stores (Ceph, Garage,
// SeaweedFS), which is the usual home of simulation snapshots on clusters
// without AWS access.
//
// # Basic Usage
//
//	store, err := minio.New("localhost:9000", "snapshots", func(o *minio.Options) {
//	    o.AccessKey = "minioadmin"
//	    o.SecretKey = "minioadmin"
//	    o.Prefix = "L25N512/"
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	snap, err := snapshot.Load(ctx, store, "snap_099.cells")
//
// An existing *minio.Client can be wrapped with NewStore.
package minio
