package geom

import "errors"

// ErrInvalidArgument is returned when a constructor receives input that
// violates a geometric invariant (zero direction, negative length, min > max).
var ErrInvalidArgument = errors.New("invalid argument")
