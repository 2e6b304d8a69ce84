package sampler

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
)

// MaxSamples is the largest number of points a single sightline may hold.
const MaxSamples = 1 << 22

var (
	// ErrNoIndex is returned by CellAware when the sampler has no index.
	ErrNoIndex = errors.New("sampler: no index configured")
	// ErrTooManySamples is returned when a request would produce more than
	// MaxSamples points. It also matches geom.ErrInvalidArgument.
	ErrTooManySamples = fmt.Errorf("%w: more than %d samples", geom.ErrInvalidArgument, MaxSamples)
)

// Mode selects a sampling strategy.
type Mode int

const (
	// ModeUniform samples N evenly spaced points.
	ModeUniform Mode = iota
	// ModeCellAware samples at cell boundaries.
	ModeCellAware
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeUniform:
		return "uniform"
	case ModeCellAware:
		return "cell-aware"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Request describes how to sample one ray.
type Request struct {
	Mode     Mode
	N        int // sample count for ModeUniform
	Metadata Metadata
}

// Options contains configuration options for the sampler.
type Options struct {
	// MaxSpacing bounds the parametric distance between consecutive
	// cell-aware samples. 0 disables refinement.
	MaxSpacing float64
}

// DefaultOptions contains the default configuration options for the sampler.
var DefaultOptions = Options{
	MaxSpacing: 0,
}

// Sampler produces sightlines from rays. It is safe for concurrent use.
type Sampler struct {
	idx  index.Index
	opts Options
}

// New creates a sampler. idx may be nil, in which case only uniform
// sampling is available and samples carry index.NoCell.
func New(idx index.Index, optFns ...func(o *Options)) (*Sampler, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.MaxSpacing < 0 || math.IsNaN(opts.MaxSpacing) || math.IsInf(opts.MaxSpacing, 0) {
		return nil, fmt.Errorf("%w: max spacing %g", geom.ErrInvalidArgument, opts.MaxSpacing)
	}

	return &Sampler{idx: idx, opts: opts}, nil
}

// Index returns the sampler's index, or nil.
func (s *Sampler) Index() index.Index { return s.idx }

// Sample dispatches on req.Mode.
func (s *Sampler) Sample(ray geom.Ray, req Request) (*Sightline, error) {
	switch req.Mode {
	case ModeUniform:
		return s.Uniform(ray, req.N, req.Metadata)
	case ModeCellAware:
		return s.CellAware(ray, req.Metadata)
	default:
		return nil, fmt.Errorf("%w: unknown sampling mode %s", geom.ErrInvalidArgument, req.Mode)
	}
}

func checkRay(ray geom.Ray) error {
	if ray.IsZero() {
		return fmt.Errorf("%w: direction vector must be non-zero", geom.ErrInvalidArgument)
	}
	return nil
}

// Uniform samples n evenly spaced points over [0, length]. The first point
// is the ray origin and the last is exactly origin + length*direction.
func (s *Sampler) Uniform(ray geom.Ray, n int, md Metadata) (*Sightline, error) {
	if err := checkRay(ray); err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, fmt.Errorf("%w: sample count %d < 2", geom.ErrInvalidArgument, n)
	}
	if n > MaxSamples {
		return nil, fmt.Errorf("%w: sample count %d", ErrTooManySamples, n)
	}

	sl := newSightline(n, md)

	var segs index.Segments
	if s.idx != nil {
		segs = s.idx.Query(ray)
		sl.Segments = segs
	}

	length := ray.Length()
	last := float64(n - 1)
	for i := range n {
		t := length * float64(i) / last
		if i == n-1 {
			t = length
		}
		sl.add(ray, t, ownerAt(segs, t))
	}

	return sl, nil
}

// ownerAt returns the first segment in sort order whose half-open interval
// [TEnter, TExit) contains t, falling back to the closed interval for the
// exit point of the path and for zero-length segments.
func ownerAt(segs index.Segments, t float64) index.CellID {
	closed := index.NoCell
	for _, seg := range segs {
		if seg.TEnter > t {
			break
		}
		if t < seg.TExit {
			return seg.Cell
		}
		if t == seg.TExit && closed == index.NoCell {
			closed = seg.Cell
		}
	}
	return closed
}

// CellAware samples at every boundary of the index query. Each maximal
// interval between consecutive boundaries emits its start and end point
// tagged with its owner (the first covering segment, or index.NoCell for
// gaps), plus interior points when MaxSpacing is set. Zero-length intervals
// emit nothing. The first sample is at t=0 and the last at t=length.
func (s *Sampler) CellAware(ray geom.Ray, md Metadata) (*Sightline, error) {
	if err := checkRay(ray); err != nil {
		return nil, err
	}
	if s.idx == nil {
		return nil, ErrNoIndex
	}

	segs := s.idx.Query(ray)
	length := ray.Length()

	bounds := make([]float64, 0, 2*len(segs)+2)
	bounds = append(bounds, 0, length)
	for _, seg := range segs {
		bounds = append(bounds, seg.TEnter, seg.TExit)
	}
	slices.Sort(bounds)
	bounds = slices.Compact(bounds)

	sl := newSightline(2*len(bounds), md)
	sl.Segments = segs

	if len(bounds) == 1 {
		// Zero-length ray.
		sl.add(ray, 0, ownerAt(segs, 0))
		return sl, nil
	}

	lo := 0
	for i := 1; i < len(bounds); i++ {
		a, b := bounds[i-1], bounds[i]

		for lo < len(segs) && segs[lo].TExit <= a {
			lo++
		}
		owner := coveringCell(segs[lo:], a, b)

		sl.add(ray, a, owner)
		if s.opts.MaxSpacing > 0 {
			k := math.Ceil((b - a) / s.opts.MaxSpacing)
			if k > float64(MaxSamples-sl.Len()) {
				return nil, fmt.Errorf("%w: spacing %g over [%g, %g]", ErrTooManySamples, s.opts.MaxSpacing, a, b)
			}
			if k > 1 {
				for j := 1; j < int(k); j++ {
					sl.add(ray, a+(b-a)*float64(j)/k, owner)
				}
			}
		}
		sl.add(ray, b, owner)
	}

	return sl, nil
}

// coveringCell returns the first segment covering [a, b], or index.NoCell.
func coveringCell(segs index.Segments, a, b float64) index.CellID {
	for _, seg := range segs {
		if seg.TEnter > a {
			break
		}
		if seg.TExit >= b {
			return seg.Cell
		}
	}
	return index.NoCell
}

// Trace samples n evenly spaced points along the ray from origin in
// direction over length, without cell lookup.
func Trace(origin, direction geom.Vec3, length float64, n int) (*Sightline, error) {
	ray, err := geom.NewRay(origin, direction, length)
	if err != nil {
		return nil, err
	}
	s := &Sampler{opts: DefaultOptions}
	return s.Uniform(ray, n, Metadata{})
}
