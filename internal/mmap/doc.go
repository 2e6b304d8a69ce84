// Package mmap provides read-only memory-mapped file access.
//
// Cell snapshots written by the snapshot package are opened through this
// package by the local blob store, so large box tables are decoded straight
// from the page cache instead of being copied through read buffers.
//
//	m, err := mmap.Open("cells.cells", mmap.AccessSequential)
//	if err != nil { ... }
//	defer m.Close()
//
//	header, err := m.Slice(0, 64)
//
// On Unix the mapping uses mmap(2) with madvise(2) hints. On Windows it uses
// CreateFileMapping/MapViewOfFile and Advise is a no-op.
//
// A Mapping is safe for concurrent reads. Close is idempotent, but callers
// must not touch a slice returned by Bytes after Close returns.
package mmap
