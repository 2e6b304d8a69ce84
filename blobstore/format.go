package blobstore

import (
	"path"
	"strings"
)

// FormatMetadataKey names the object metadata entry that remote stores use
// to record a blob's snapshot format.
const FormatMetadataKey = "Sightline-Format"

// Format describes how a blob is encoded, derived from its file extension.
type Format struct {
	Name        string // "cells", "json" or "raw"
	ContentType string
}

// FormatOf classifies name by extension. Matching is case-insensitive.
func FormatOf(name string) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".cells":
		return Format{Name: "cells", ContentType: "application/octet-stream"}
	case ".json":
		return Format{Name: "json", ContentType: "application/json"}
	default:
		return Format{Name: "raw", ContentType: "application/octet-stream"}
	}
}

// Range clamps a read of length bytes at off to a blob of the given size
// and returns the inclusive last byte. ok is false when off lies outside
// the blob or length is not positive.
func Range(size, off, length int64) (last int64, ok bool) {
	if off < 0 || off >= size || length <= 0 {
		return 0, false
	}
	return min(off+length, size) - 1, true
}
