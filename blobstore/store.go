package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
)

// ErrNotFound reports a missing blob. Stores may wrap it; callers test with
// errors.Is. It aliases os.ErrNotExist so local file errors match directly.
var ErrNotFound = os.ErrNotExist

// BlobStore is where snapshots and ray files live. Implementations are safe
// for concurrent use.
type BlobStore interface {
	// Open returns a read handle. Missing blobs yield ErrNotFound.
	Open(ctx context.Context, name string) (Blob, error)
	// Create opens a blob for streaming writes. The blob becomes visible on Close.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Put stores data under name, replacing any previous blob.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is an open, read-only snapshot handle.
type Blob interface {
	io.Closer
	// ReadAt reads len(p) bytes at offset off. It follows io.ReaderAt semantics.
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	// ReadRange returns a reader for length bytes starting at off.
	// Offsets at or past the end return io.EOF.
	ReadRange(ctx context.Context, off, length int64) (io.ReadCloser, error)
	// Size is the blob length in bytes.
	Size() int64
}

// WritableBlob is a handle for streaming writes.
type WritableBlob interface {
	io.WriteCloser
	// Sync flushes buffered data to durable storage where supported.
	Sync() error
}

// Aborter is implemented by WritableBlobs that can discard an unfinished
// write so that nothing becomes visible.
type Aborter interface {
	Abort() error
}

// Mappable is implemented by blobs whose contents are already in memory,
// either mapped or buffered.
type Mappable interface {
	// Bytes exposes the contents without copying. The slice must not be
	// used after the blob is closed.
	Bytes() ([]byte, error)
}

// ReadAll returns the full contents of blob. Mappable blobs are copied out of
// their mapping so the result stays valid after the blob is closed.
func ReadAll(ctx context.Context, blob Blob) ([]byte, error) {
	if m, ok := blob.(Mappable); ok {
		data, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		out := make([]byte, len(data))
		copy(out, data)
		return out, nil
	}

	size := blob.Size()
	if size == 0 {
		return []byte{}, nil
	}

	rc, err := blob.ReadRange(ctx, 0, size)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	buf := make([]byte, size)
	n, err := io.ReadFull(rc, buf)
	if err != nil {
		return nil, fmt.Errorf("blobstore: read %d of %d bytes: %w", n, size, err)
	}
	return buf, nil
}

// Get opens name, reads it completely and closes it.
func Get(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	return ReadAll(ctx, blob)
}
