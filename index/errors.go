package index

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyIndex is informational: the index holds no cells. Queries
	// against an empty index succeed with no segments; only operations that
	// need at least one cell (such as Bounds) report it.
	ErrEmptyIndex = errors.New("index is empty")

	// ErrOutOfRange is the sentinel wrapped by ErrCellOutOfRange.
	ErrOutOfRange = errors.New("cell id out of range")
)

// ErrCellOutOfRange is returned when a cell identifier does not exist in the
// index or field table it was resolved against.
type ErrCellOutOfRange struct {
	ID    CellID
	Count int
}

// Error returns the error message for an out-of-range cell identifier.
func (e *ErrCellOutOfRange) Error() string {
	return fmt.Sprintf("cell id %d out of range [0, %d)", e.ID, e.Count)
}

// Unwrap returns ErrOutOfRange so callers can match with errors.Is.
func (e *ErrCellOutOfRange) Unwrap() error {
	return ErrOutOfRange
}
