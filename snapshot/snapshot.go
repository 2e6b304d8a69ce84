package snapshot

import (
	"maps"

	"github.com/hupe1980/sightline/geom"
)

// DefaultLoader is recorded in Header.Loader when the snapshot names none.
const DefaultLoader = "arepo-stub"

// MetaLoader is the meta key that names the loader.
const MetaLoader = "loader"

// Header describes a loaded snapshot.
type Header struct {
	// Source is the blob name the snapshot was loaded from.
	Source string
	// Format is "json" or "cells".
	Format string
	// Loader names the producer of the snapshot.
	Loader string
	// RequestedFields lists the fields passed to WithFields, if any.
	RequestedFields []string
	// Meta holds the free-form document metadata.
	Meta map[string]any
}

// Snapshot is a set of cell boxes with their fields.
type Snapshot struct {
	Header Header
	Boxes  []geom.AABB
	Fields *FieldTable
}

// New creates a snapshot over boxes with an empty field table.
func New(boxes []geom.AABB) *Snapshot {
	return &Snapshot{
		Header: Header{Loader: DefaultLoader, Meta: map[string]any{}},
		Boxes:  boxes,
		Fields: NewFieldTable(len(boxes)),
	}
}

// Len returns the number of cells.
func (s *Snapshot) Len() int { return len(s.Boxes) }

func (s *Snapshot) meta() map[string]any {
	m := maps.Clone(s.Header.Meta)
	if m == nil {
		m = map[string]any{}
	}
	if s.Header.Loader != "" {
		m[MetaLoader] = s.Header.Loader
	}
	return m
}

func loaderFromMeta(meta map[string]any) string {
	if s, ok := meta[MetaLoader].(string); ok && s != "" {
		return s
	}
	return DefaultLoader
}
