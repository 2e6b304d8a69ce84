package main

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/hupe1980/sightline"
	"github.com/hupe1980/sightline/blobstore"
	"github.com/hupe1980/sightline/codec"
	"github.com/hupe1980/sightline/engine"
	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
	"github.com/hupe1980/sightline/internal/compress"
	"github.com/hupe1980/sightline/resource"
	"github.com/hupe1980/sightline/sampler"
	"github.com/hupe1980/sightline/snapshot"
	"github.com/hupe1980/sightline/spectrum"
)

const defaultSamples = 128

func runTrace(_ context.Context, e *env, args []string) error {
	fs := newFlagSet("trace", e.stderr)
	n := fs.Int("n", defaultSamples, "number of samples")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	ray, err := parseRay(pos)
	if err != nil {
		return err
	}

	sl, err := sampler.Trace(ray.origin, ray.direction, ray.length, *n)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(e.stdout, sl.Len())
	return err
}

type segmentJSON struct {
	Cell   index.CellID       `json:"cell"`
	TEnter float64            `json:"t_enter"`
	TExit  float64            `json:"t_exit"`
	Length float64            `json:"length"`
	Fields map[string]float64 `json:"fields,omitempty"`
}

func toSegmentsJSON(eng *sightline.Engine, segs index.Segments, withFields bool) ([]segmentJSON, error) {
	out := make([]segmentJSON, 0, len(segs))
	for _, s := range segs {
		js := segmentJSON{Cell: s.Cell, TEnter: s.TEnter, TExit: s.TExit, Length: s.Length()}
		if withFields {
			f, err := eng.Fields(s.Cell)
			if err != nil {
				return nil, err
			}
			js.Fields = f
		}
		out = append(out, js)
	}
	return out, nil
}

func openEngine(ctx context.Context, e *env, location string, opts ...sightline.Option) (*sightline.Engine, error) {
	store, name, err := openStore(ctx, location)
	if err != nil {
		return nil, err
	}
	return sightline.Open(ctx, store, name, append(e.engineOptions(), opts...)...)
}

func writeJSON(w io.Writer, v any) error {
	data, err := codec.MarshalIndent(codec.Default, v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

func runSegments(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("segments", e.stderr)
	first := fs.Bool("first", false, "print only the nearest cell")
	withFields := fs.Bool("fields", false, "include cell fields")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 1 {
		return usagef("missing SNAPSHOT")
	}
	ray, err := parseRay(pos[1:])
	if err != nil {
		return err
	}

	eng, err := openEngine(ctx, e, pos[0])
	if err != nil {
		return err
	}
	defer eng.Close()

	var segs index.Segments
	if *first {
		seg, ok, err := eng.FirstHit(ctx, ray.origin, ray.direction, ray.length)
		if err != nil {
			return err
		}
		if ok {
			segs = index.Segments{seg}
		}
	} else {
		segs, err = eng.Query(ctx, ray.origin, ray.direction, ray.length)
		if err != nil {
			return err
		}
	}

	out, err := toSegmentsJSON(eng, segs, *withFields)
	if err != nil {
		return err
	}
	return writeJSON(e.stdout, out)
}

type spectrumSummary struct {
	Points        int            `json:"points"`
	Samples       int            `json:"samples"`
	Cells         int            `json:"cells"`
	MinWavelength float64        `json:"min_wavelength"`
	MinFlux       float64        `json:"min_flux"`
	Lines         []string       `json:"lines"`
	Meta          map[string]any `json:"meta"`
}

func runSpectrum(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("spectrum", e.stderr)
	n := fs.Int("n", defaultSamples, "number of uniform samples")
	lines := fs.String("lines", "", `comma-separated absorption lines, e.g. "HI 1216, CIV 1548"`)
	asCSV := fs.Bool("csv", false, "write the spectrum as CSV")
	cellAware := fs.Bool("cell-aware", false, "sample at cell boundaries")
	resolution := fs.Float64("resolution", spectrum.DefaultOptions.ResolutionKMS, "resolution in km/s")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) < 1 {
		return usagef("missing SNAPSHOT")
	}
	ray, err := parseRay(pos[1:])
	if err != nil {
		return err
	}

	eng, err := openEngine(ctx, e, pos[0])
	if err != nil {
		return err
	}
	defer eng.Close()

	lineList := spectrum.ParseLines(*lines)
	md := sampler.Metadata{
		SourcePath:    pos[0],
		ResolutionKMS: *resolution,
		Lines:         lineList,
		Snapshot:      eng.Snapshot().Header.Loader,
	}

	var sl *sampler.Sightline
	if *cellAware {
		sl, err = eng.TraceCells(ctx, ray.origin, ray.direction, ray.length, md)
	} else {
		sl, err = eng.Trace(ctx, ray.origin, ray.direction, ray.length, *n, md)
	}
	if err != nil {
		return err
	}

	spec, err := spectrum.Synthesize(sl, lineList, spectrum.WithResolution(*resolution))
	if err != nil {
		return err
	}

	if *asCSV {
		return spec.WriteCSV(e.stdout)
	}

	wl, flux := spec.MinFlux()
	return writeJSON(e.stdout, spectrumSummary{
		Points:        spec.Len(),
		Samples:       sl.Len(),
		Cells:         len(sl.Segments),
		MinWavelength: wl,
		MinFlux:       flux,
		Lines:         spec.Lines,
		Meta:          spec.Meta,
	})
}

// rayJSON is one entry of a batch file.
type rayJSON struct {
	Origin    [3]float64 `json:"origin"`
	Direction [3]float64 `json:"direction"`
	Length    float64    `json:"length"`
	Samples   int        `json:"samples,omitempty"`
	CellAware bool       `json:"cell_aware,omitempty"`
}

type batchLine struct {
	Index    int           `json:"index"`
	Segments []segmentJSON `json:"segments,omitempty"`
	Samples  int           `json:"samples,omitempty"`
	Error    string        `json:"error,omitempty"`
}

func parseOutput(s string) (engine.Output, error) {
	switch s {
	case "segments":
		return engine.OutputSegments, nil
	case "sightline":
		return engine.OutputSightline, nil
	case "first-hit":
		return engine.OutputFirstHit, nil
	default:
		return 0, usagef("unknown output %q (want segments, sightline or first-hit)", s)
	}
}

func loadRays(ctx context.Context, location string, out engine.Output) ([]engine.Request, error) {
	store, name, err := openStore(ctx, location)
	if err != nil {
		return nil, err
	}
	data, err := blobstore.Get(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("read rays: %w", err)
	}

	var rays []rayJSON
	if err := codec.Default.Unmarshal(data, &rays); err != nil {
		return nil, fmt.Errorf("decode rays: %w", err)
	}

	reqs := make([]engine.Request, len(rays))
	for i, r := range rays {
		samples := r.Samples
		if samples == 0 && !r.CellAware {
			samples = defaultSamples
		}
		reqs[i] = engine.Request{
			Origin:    vec(r.Origin),
			Direction: vec(r.Direction),
			Length:    r.Length,
			Output:    out,
			Samples:   samples,
			CellAware: r.CellAware,
			Metadata:  sampler.Metadata{SourcePath: location},
		}
	}
	return reqs, nil
}

func vec(v [3]float64) geom.Vec3 {
	return geom.Vec3{X: v[0], Y: v[1], Z: v[2]}
}

func runBatch(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("batch", e.stderr)
	workers := fs.Int("workers", 0, "number of workers (0 = GOMAXPROCS)")
	rate := fs.Float64("rate", 0, "maximum rays per second (0 = unlimited)")
	output := fs.String("output", "segments", "segments, sightline or first-hit")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return usagef("expected SNAPSHOT and RAYS.json")
	}
	out, err := parseOutput(*output)
	if err != nil {
		return err
	}

	reqs, err := loadRays(ctx, pos[1], out)
	if err != nil {
		return err
	}

	n := *workers
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	rc := resource.NewController(resource.Config{
		MaxWorkers:    int64(n),
		RaysPerSecond: *rate,
	})

	eng, err := openEngine(ctx, e, pos[0], sightline.WithWorkers(n), sightline.WithResourceController(rc))
	if err != nil {
		return err
	}
	defer eng.Close()

	results := make([]engine.Result, 0, len(reqs))
	failed := 0
	for res, resErr := range eng.Stream(ctx, reqs) {
		line := batchLine{Index: res.Index}
		if resErr != nil {
			line.Error = resErr.Error()
			failed++
		} else {
			line.Segments, err = toSegmentsJSON(eng, res.Segments, false)
			if err != nil {
				return err
			}
			if res.Sightline != nil {
				line.Samples = res.Sightline.Len()
			}
		}

		data, err := codec.Default.Marshal(line)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(e.stdout, "%s\n", data); err != nil {
			return err
		}
		results = append(results, res)
	}

	touched := engine.TouchedCells(results)
	fmt.Fprintf(e.stderr, "rays=%d failed=%d cells_touched=%d\n", len(results), failed, touched.GetCardinality())

	return ctx.Err()
}

func runConvert(ctx context.Context, e *env, args []string) error {
	fs := newFlagSet("convert", e.stderr)
	compression := fs.String("compression", compress.LZ4.String(), "block compression: none, lz4 or zstd")
	fields := fs.String("fields", "", "comma-separated fields to keep")

	pos, err := parseArgs(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 2 {
		return usagef("expected SRC and DST")
	}
	ct, err := compress.ParseType(*compression)
	if err != nil {
		return usageError{err: err}
	}

	src, srcName, err := openStore(ctx, pos[0])
	if err != nil {
		return err
	}
	dst, dstName, err := openStore(ctx, pos[1])
	if err != nil {
		return err
	}

	var loadOpts []func(o *snapshot.Options)
	if names := splitList(*fields); len(names) > 0 {
		loadOpts = append(loadOpts, snapshot.WithFields(names...))
	}

	snap, err := snapshot.Load(ctx, src, srcName, loadOpts...)
	if err != nil {
		return err
	}
	if err := snapshot.Save(ctx, dst, dstName, snap, snapshot.WithCompression(ct)); err != nil {
		return err
	}

	_, err = fmt.Fprintf(e.stdout, "%s: %d cells, fields %v\n", pos[1], snap.Len(), snap.Fields.Names())
	return err
}
