// Package spectrum synthesizes placeholder absorption spectra for sampled
// sightlines. The profile is a single Gaussian dip on a unit continuum and
// stands in for real radiative transfer in smoke tests and pipelines.
package spectrum

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/sampler"
)

const (
	// MinPoints is the smallest wavelength grid Synthesize produces.
	MinPoints = 256
	// StartWavelength is the first grid point in Angstrom.
	StartWavelength = 1200.0
	// Depth is the fractional depth of the absorption dip.
	Depth = 0.2
)

// MetaResolutionKMS is the Meta key holding the resolution.
const MetaResolutionKMS = sampler.KeyResolutionKMS

// Spectrum is a flux array on a wavelength grid (Angstrom).
type Spectrum struct {
	Wavelength []float64      `json:"wavelength"`
	Flux       []float64      `json:"flux"`
	Lines      []string       `json:"lines"`
	Meta       map[string]any `json:"meta"`
}

// Options configures Synthesize.
type Options struct {
	// ResolutionKMS sets the width of the dip (sigma = max(1, R/3) Angstrom).
	ResolutionKMS float64
}

// DefaultOptions contains the default synthesis options.
var DefaultOptions = Options{
	ResolutionKMS: 10,
}

// WithResolution sets the spectral resolution in km/s.
func WithResolution(kms float64) func(o *Options) {
	return func(o *Options) {
		o.ResolutionKMS = kms
	}
}

// Synthesize produces a toy spectrum for sl. The grid has one point per
// Angstrom and at least MinPoints points, or one per sample if there are more.
// Meta holds the resolution merged with the sightline metadata; sightline
// keys take precedence.
func Synthesize(sl *sampler.Sightline, lines []string, optFns ...func(o *Options)) (*Spectrum, error) {
	if sl == nil {
		return nil, fmt.Errorf("%w: nil sightline", geom.ErrInvalidArgument)
	}

	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}
	res := opts.ResolutionKMS
	if math.IsNaN(res) || math.IsInf(res, 0) || res < 0 {
		return nil, fmt.Errorf("%w: resolution %g km/s", geom.ErrInvalidArgument, res)
	}

	n := max(MinPoints, sl.Len())
	center := StartWavelength + float64(n)/2
	sigma := max(1, res/3)

	s := &Spectrum{
		Wavelength: make([]float64, n),
		Flux:       make([]float64, n),
		Lines:      slices.Clone(lines),
		Meta:       map[string]any{MetaResolutionKMS: res},
	}
	if s.Lines == nil {
		s.Lines = []string{}
	}
	maps.Copy(s.Meta, sl.Metadata.AsMap())

	for i := range n {
		wl := StartWavelength + float64(i)
		x := (wl - center) / sigma
		s.Wavelength[i] = wl
		s.Flux[i] = 1 - Depth*math.Exp(-0.5*x*x)
	}

	return s, nil
}

// Len returns the number of grid points.
func (s *Spectrum) Len() int { return len(s.Wavelength) }

// MinFlux returns the deepest flux value and its wavelength.
func (s *Spectrum) MinFlux() (wavelength, flux float64) {
	if len(s.Flux) == 0 {
		return math.NaN(), math.NaN()
	}
	i := 0
	for j, f := range s.Flux {
		if f < s.Flux[i] {
			i = j
		}
	}
	return s.Wavelength[i], s.Flux[i]
}

// WriteCSV writes "wavelength,flux" rows with a header line.
func (s *Spectrum) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"wavelength", "flux"}); err != nil {
		return err
	}
	for i := range s.Wavelength {
		row := []string{
			strconv.FormatFloat(s.Wavelength[i], 'g', -1, 64),
			strconv.FormatFloat(s.Flux[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParseLines splits a comma-separated list such as "HI 1216, CIV 1548".
// Blank entries are dropped.
func ParseLines(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
