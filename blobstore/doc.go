// Package blobstore provides the storage abstraction snapshots are loaded from.
//
// BlobStore is the interface for reading and writing cell snapshots.
// Implementations must be safe for concurrent use and honor the context
// passed to every operation.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap reads and atomic rename-on-close writes
//   - MemoryStore: in-process map, used by tests and generated snapshots
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - minio.Store: MinIO and other S3-compatible object stores
//
// # Reading
//
// Get and ReadAll fetch a whole blob. Blobs that implement Mappable expose
// their bytes without a copy; everything else is read through ReadRange.
//
//	data, err := blobstore.Get(ctx, store, "run42/cells.cells")
package blobstore
