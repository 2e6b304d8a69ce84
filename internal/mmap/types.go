package mmap

import "errors"

// AccessPattern is a paging hint for a mapping.
type AccessPattern int

const (
	// AccessNormal leaves paging to the kernel.
	AccessNormal AccessPattern = iota
	// AccessSequential suits decoders that walk a snapshot front to back.
	AccessSequential
	// AccessRandom suits point lookups into a box table.
	AccessRandom
	// AccessWillNeed asks for read-ahead of the whole mapping.
	AccessWillNeed
)

func (p AccessPattern) String() string {
	switch p {
	case AccessSequential:
		return "sequential"
	case AccessRandom:
		return "random"
	case AccessWillNeed:
		return "willneed"
	default:
		return "normal"
	}
}

var (
	ErrClosed        = errors.New("mmap: mapping is closed")
	ErrInvalidSize   = errors.New("mmap: file size does not fit in memory")
	ErrInvalidOffset = errors.New("mmap: offset out of range")
)
