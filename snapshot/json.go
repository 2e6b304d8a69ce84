package snapshot

import (
	"bytes"
	"fmt"
	"math"

	gojson "github.com/goccy/go-json"
	"github.com/hupe1980/sightline/codec"
	"github.com/hupe1980/sightline/geom"
)

type jsonDocument struct {
	Cells jsonCells      `json:"cells"`
	Meta  map[string]any `json:"meta,omitempty"`
}

type jsonCells struct {
	Center   [][3]float64          `json:"center"`
	HalfSize []halfSize            `json:"half_size"`
	Fields   map[string][]*float64 `json:"fields,omitempty"`
}

// halfSize accepts either a scalar (cube) or a [hx,hy,hz] triple.
type halfSize [3]float64

func (h *halfSize) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var v [3]float64
		if err := gojson.Unmarshal(data, &v); err != nil {
			return err
		}
		*h = v
		return nil
	}

	var s float64
	if err := gojson.Unmarshal(data, &s); err != nil {
		return err
	}
	*h = halfSize{s, s, s}
	return nil
}

func (h halfSize) MarshalJSON() ([]byte, error) {
	if h[0] == h[1] && h[1] == h[2] {
		return gojson.Marshal(h[0])
	}
	return gojson.Marshal([3]float64(h))
}

// DecodeJSON parses a mock JSON snapshot. A nil codec selects codec.Default.
func DecodeJSON(data []byte, c codec.Codec) (*Snapshot, error) {
	if c == nil {
		c = codec.Default
	}

	var doc jsonDocument
	if err := c.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	cells := doc.Cells
	if len(cells.Center) != len(cells.HalfSize) {
		return nil, fmt.Errorf("%w: %d centers but %d half sizes", ErrCorrupt, len(cells.Center), len(cells.HalfSize))
	}

	boxes := make([]geom.AABB, len(cells.Center))
	for i, c := range cells.Center {
		h := cells.HalfSize[i]
		box, err := geom.NewAABBFromCenter(geom.Vec3{X: c[0], Y: c[1], Z: c[2]}, geom.Vec3{X: h[0], Y: h[1], Z: h[2]})
		if err != nil {
			return nil, fmt.Errorf("snapshot: cell %d: %w", i, err)
		}
		boxes[i] = box
	}

	snap := New(boxes)
	snap.Header.Format = FormatJSON
	if doc.Meta != nil {
		snap.Header.Meta = doc.Meta
	}
	snap.Header.Loader = loaderFromMeta(snap.Header.Meta)

	for name, raw := range cells.Fields {
		values := make([]float64, len(raw))
		for i, v := range raw {
			if v == nil {
				values[i] = math.NaN()
			} else {
				values[i] = *v
			}
		}
		if err := snap.Fields.Add(name, values); err != nil {
			return nil, err
		}
	}

	return snap, nil
}

// EncodeJSON writes s as a mock JSON snapshot. A nil codec selects codec.Default.
func EncodeJSON(s *Snapshot, c codec.Codec) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}

	doc := jsonDocument{
		Cells: jsonCells{
			Center:   make([][3]float64, len(s.Boxes)),
			HalfSize: make([]halfSize, len(s.Boxes)),
		},
		Meta: s.meta(),
	}

	for i, box := range s.Boxes {
		center, size := box.Center(), box.Size()
		doc.Cells.Center[i] = [3]float64{center.X, center.Y, center.Z}
		doc.Cells.HalfSize[i] = halfSize{size.X / 2, size.Y / 2, size.Z / 2}
	}

	if s.Fields != nil && len(s.Fields.names) > 0 {
		doc.Cells.Fields = make(map[string][]*float64, len(s.Fields.names))
		for _, name := range s.Fields.names {
			col := s.Fields.columns[name]
			out := make([]*float64, len(col))
			for i := range col {
				if !math.IsNaN(col[i]) {
					out[i] = &col[i]
				}
			}
			doc.Cells.Fields[name] = out
		}
	}

	return codec.MarshalIndent(c, doc)
}
