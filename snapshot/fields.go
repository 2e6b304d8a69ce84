package snapshot

import (
	"fmt"
	"math"
	"slices"

	"github.com/bits-and-blooms/bitset"
	"github.com/hupe1980/sightline/index"
)

// FieldAccessor returns the physical fields of a single cell.
type FieldAccessor interface {
	Fields(id index.CellID) (map[string]float64, error)
}

// FieldTable stores per-cell scalar fields as columns. A cell may lack a
// value for a field; such entries are tracked in a presence set and omitted
// from Fields.
type FieldTable struct {
	n       int
	names   []string
	columns map[string][]float64
	present map[string]*bitset.BitSet
}

var _ FieldAccessor = (*FieldTable)(nil)

// NewFieldTable creates an empty table for n cells.
func NewFieldTable(n int) *FieldTable {
	return &FieldTable{
		n:       n,
		columns: make(map[string][]float64),
		present: make(map[string]*bitset.BitSet),
	}
}

// Add stores a column. values must hold one entry per cell; NaN marks a
// missing value. The table keeps its own copy.
func (t *FieldTable) Add(name string, values []float64) error {
	if name == "" {
		return fmt.Errorf("%w: empty field name", ErrCorrupt)
	}
	if len(values) != t.n {
		return fmt.Errorf("%w: field %q has %d values for %d cells", ErrCorrupt, name, len(values), t.n)
	}

	col := slices.Clone(values)
	if col == nil {
		col = []float64{}
	}
	set := bitset.New(uint(t.n))
	for i, v := range col {
		if !math.IsNaN(v) {
			set.Set(uint(i))
		}
	}

	if _, ok := t.columns[name]; !ok {
		t.names = append(t.names, name)
		slices.Sort(t.names)
	}
	t.columns[name] = col
	t.present[name] = set
	return nil
}

// Len returns the number of cells.
func (t *FieldTable) Len() int { return t.n }

// Names returns the sorted field names.
func (t *FieldTable) Names() []string { return slices.Clone(t.names) }

// Column returns the raw column for name (NaN for missing values).
// The slice must not be modified.
func (t *FieldTable) Column(name string) ([]float64, bool) {
	col, ok := t.columns[name]
	return col, ok
}

// Count returns how many cells have a value for name.
func (t *FieldTable) Count(name string) int {
	set, ok := t.present[name]
	if !ok {
		return 0
	}
	return int(set.Count())
}

// Value returns a single field value.
func (t *FieldTable) Value(name string, id index.CellID) (float64, bool) {
	set, ok := t.present[name]
	if !ok || int64(id) >= int64(t.n) || !set.Test(uint(id)) {
		return 0, false
	}
	return t.columns[name][id], true
}

// Fields returns every field present for the cell.
func (t *FieldTable) Fields(id index.CellID) (map[string]float64, error) {
	if id == index.NoCell || int64(id) >= int64(t.n) {
		return nil, &index.ErrCellOutOfRange{ID: id, Count: t.n}
	}

	out := make(map[string]float64, len(t.names))
	for _, name := range t.names {
		if t.present[name].Test(uint(id)) {
			out[name] = t.columns[name][id]
		}
	}
	return out, nil
}

// Select returns a table restricted to names. Unknown names fail with
// ErrUnknownField. Columns are shared with t.
func (t *FieldTable) Select(names ...string) (*FieldTable, error) {
	out := NewFieldTable(t.n)
	for _, name := range names {
		col, ok := t.columns[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}
		if _, dup := out.columns[name]; dup {
			continue
		}
		out.names = append(out.names, name)
		out.columns[name] = col
		out.present[name] = t.present[name]
	}
	slices.Sort(out.names)
	return out, nil
}
