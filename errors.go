package sightline

import (
	"errors"
	"fmt"

	"github.com/hupe1980/sightline/blobstore"
	"github.com/hupe1980/sightline/engine"
	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
	"github.com/hupe1980/sightline/resource"
	"github.com/hupe1980/sightline/sampler"
	"github.com/hupe1980/sightline/snapshot"
)

var (
	// ErrInvalidArgument is returned for malformed rays, boxes and options.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyIndex is returned by Bounds when the engine has no cells.
	ErrEmptyIndex = errors.New("empty index")

	// ErrOutOfRangeCellID is returned for cell ids outside the index.
	ErrOutOfRangeCellID = errors.New("cell id out of range")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("engine closed")

	// ErrNotFound is returned when a snapshot does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat is returned for snapshot formats that cannot be read.
	ErrUnsupportedFormat = errors.New("unsupported snapshot format")

	// ErrMemoryLimit is returned when building the index would exceed the
	// configured memory limit.
	ErrMemoryLimit = errors.New("memory limit exceeded")
)

// ErrCellOutOfRange reports a cell id outside [0, Count).
//
// It matches ErrOutOfRangeCellID with errors.Is, and the original underlying
// error can be accessed via errors.Unwrap.
type ErrCellOutOfRange struct {
	ID    index.CellID
	Count int
	cause error
}

func (e *ErrCellOutOfRange) Error() string {
	return fmt.Sprintf("cell id %d out of range [0, %d)", e.ID, e.Count)
}

func (e *ErrCellOutOfRange) Is(target error) bool { return target == ErrOutOfRangeCellID }

func (e *ErrCellOutOfRange) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	var oor *index.ErrCellOutOfRange
	if errors.As(err, &oor) {
		return &ErrCellOutOfRange{ID: oor.ID, Count: oor.Count, cause: err}
	}

	switch {
	case errors.Is(err, geom.ErrInvalidArgument), errors.Is(err, sampler.ErrNoIndex):
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	case errors.Is(err, index.ErrEmptyIndex):
		return fmt.Errorf("%w: %w", ErrEmptyIndex, err)
	case errors.Is(err, engine.ErrClosed):
		return fmt.Errorf("%w: %w", ErrClosed, err)
	case errors.Is(err, resource.ErrMemoryLimit):
		return fmt.Errorf("%w: %w", ErrMemoryLimit, err)
	case errors.Is(err, snapshot.ErrUnsupportedFormat):
		return fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	case errors.Is(err, blobstore.ErrNotFound):
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
