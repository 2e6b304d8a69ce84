package snapshot

import "errors"

var (
	// ErrUnsupportedFormat is returned for snapshot formats that cannot be read.
	ErrUnsupportedFormat = errors.New("snapshot: unsupported format")

	// ErrCorrupt is returned when a snapshot document is malformed.
	ErrCorrupt = errors.New("snapshot: corrupt")

	// ErrUnknownField is returned when a requested field is not in the snapshot.
	ErrUnknownField = errors.New("snapshot: unknown field")
)
