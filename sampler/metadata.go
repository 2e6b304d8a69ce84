package sampler

import (
	"maps"
	"slices"
)

// Well-known metadata keys used by AsMap and MetadataFromMap.
const (
	KeySourcePath    = "source_path"
	KeyResolutionKMS = "resolution_kms"
	KeyLines         = "lines"
	KeySnapshot      = "snapshot"
)

// Metadata describes where a sightline came from and how it is meant to be
// synthesized. Unknown keys are kept in Extra.
type Metadata struct {
	SourcePath    string
	ResolutionKMS float64 // 0 means unset
	Lines         []string
	Snapshot      string
	Extra         map[string]any
}

// Clone returns a deep copy of the typed fields and a shallow copy of Extra.
func (m Metadata) Clone() Metadata {
	c := m
	c.Lines = slices.Clone(m.Lines)
	if m.Extra != nil {
		c.Extra = maps.Clone(m.Extra)
	}
	return c
}

// AsMap flattens the metadata into a string-keyed map. Unset typed fields
// are omitted; Extra entries never override typed fields.
func (m Metadata) AsMap() map[string]any {
	out := make(map[string]any, len(m.Extra)+4)
	maps.Copy(out, m.Extra)

	if m.SourcePath != "" {
		out[KeySourcePath] = m.SourcePath
	}
	if m.ResolutionKMS != 0 {
		out[KeyResolutionKMS] = m.ResolutionKMS
	}
	if len(m.Lines) > 0 {
		out[KeyLines] = slices.Clone(m.Lines)
	}
	if m.Snapshot != "" {
		out[KeySnapshot] = m.Snapshot
	}

	return out
}

// MetadataFromMap builds Metadata from a free-form map. Well-known keys with
// the expected type populate the typed fields; everything else lands in
// Extra.
func MetadataFromMap(in map[string]any) Metadata {
	var m Metadata

	for k, v := range in {
		switch k {
		case KeySourcePath:
			if s, ok := v.(string); ok {
				m.SourcePath = s
				continue
			}
		case KeySnapshot:
			if s, ok := v.(string); ok {
				m.Snapshot = s
				continue
			}
		case KeyResolutionKMS:
			switch f := v.(type) {
			case float64:
				m.ResolutionKMS = f
				continue
			case int:
				m.ResolutionKMS = float64(f)
				continue
			}
		case KeyLines:
			switch l := v.(type) {
			case []string:
				m.Lines = slices.Clone(l)
				continue
			case []any:
				if lines, ok := stringSlice(l); ok {
					m.Lines = lines
					continue
				}
			}
		}

		if m.Extra == nil {
			m.Extra = make(map[string]any)
		}
		m.Extra[k] = v
	}

	return m
}

func stringSlice(in []any) ([]string, bool) {
	out := make([]string, len(in))
	for i, v := range in {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}
