package sampler

import (
	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
)

// Sample is a single point of a sightline.
type Sample struct {
	T        float64
	Position geom.Vec3
	Cell     index.CellID
}

// Sightline is the sampled path of one ray. The slices Positions, T and
// Cells have equal length. Segments holds the index query the samples were
// derived from, or nil when the sampler has no index.
type Sightline struct {
	Positions []geom.Vec3
	T         []float64
	Cells     []index.CellID
	Segments  index.Segments
	Metadata  Metadata
}

// Len returns the number of samples.
func (s *Sightline) Len() int { return len(s.T) }

// At returns sample i.
func (s *Sightline) At(i int) Sample {
	return Sample{T: s.T[i], Position: s.Positions[i], Cell: s.Cells[i]}
}

// Samples returns a copy of all samples.
func (s *Sightline) Samples() []Sample {
	out := make([]Sample, s.Len())
	for i := range out {
		out[i] = s.At(i)
	}
	return out
}

func newSightline(capacity int, md Metadata) *Sightline {
	return &Sightline{
		Positions: make([]geom.Vec3, 0, capacity),
		T:         make([]float64, 0, capacity),
		Cells:     make([]index.CellID, 0, capacity),
		Metadata:  md.Clone(),
	}
}

func (s *Sightline) add(ray geom.Ray, t float64, cell index.CellID) {
	s.Positions = append(s.Positions, ray.At(t))
	s.T = append(s.T, t)
	s.Cells = append(s.Cells, cell)
}
