package snapshot

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/hupe1980/sightline/codec"
	"github.com/hupe1980/sightline/geom"
	"github.com/hupe1980/sightline/index"
	"github.com/hupe1980/sightline/internal/compress"
)

// Magic identifies the binary cell format.
const Magic = "SLCELLS1"

// Version is the binary format version written by Encode. Decode also
// reads version 1 files, whose columns are a single block.
const Version uint16 = 2

// chunkCells is the number of cells per column block. It keeps every block
// well below the 4 GiB limit of the block header.
var chunkCells = 1 << 20

const boxWidth = 6 * 8

// Binary layout (little endian):
//
//	magic    [8]byte  "SLCELLS1"
//	version  uint16
//	compress uint8    compress.Type of every block
//	_        uint8
//	count    uint32   number of cells
//	nfields  uint16
//	nfields × { len uint16, name [len]byte }
//	column   boxes: count × {min.x, min.y, min.z, max.x, max.y, max.z} float64
//	nfields × column  count × float64, NaN for missing values
//	block    meta document (codec.Default JSON)
//
// A column is one or more blocks of at most chunkCells cells each; an empty
// column is a single empty block.
const fixedHeaderSize = 8 + 2 + 1 + 1 + 4 + 2

// Encode writes s in the binary cell format.
func Encode(s *Snapshot, ct compress.Type) ([]byte, error) {
	if uint64(len(s.Boxes)) > uint64(index.MaxCells) {
		return nil, fmt.Errorf("%w: %d cells exceed the cell id space", ErrCorrupt, len(s.Boxes))
	}
	if !ct.Valid() {
		return nil, fmt.Errorf("%w: %d", compress.ErrUnknownType, ct)
	}

	var names []string
	if s.Fields != nil {
		names = s.Fields.names
	}
	if len(names) > math.MaxUint16 {
		return nil, fmt.Errorf("%w: too many fields", ErrCorrupt)
	}

	buf := make([]byte, 0, fixedHeaderSize+len(s.Boxes)*boxWidth)
	buf = append(buf, Magic...)
	buf = binary.LittleEndian.AppendUint16(buf, Version)
	buf = append(buf, byte(ct), 0)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s.Boxes)))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(names)))
	for _, name := range names {
		if len(name) > math.MaxUint16 {
			return nil, fmt.Errorf("%w: field name too long", ErrCorrupt)
		}
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(name)))
		buf = append(buf, name...)
	}

	buf, err := appendColumn(buf, len(s.Boxes), boxWidth, ct, func(raw []byte, i int) []byte {
		b := s.Boxes[i]
		for _, v := range [6]float64{b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z} {
			raw = binary.LittleEndian.AppendUint64(raw, math.Float64bits(v))
		}
		return raw
	})
	if err != nil {
		return nil, err
	}

	for _, name := range names {
		col := s.Fields.columns[name]
		buf, err = appendColumn(buf, len(col), 8, ct, func(raw []byte, i int) []byte {
			return binary.LittleEndian.AppendUint64(raw, math.Float64bits(col[i]))
		})
		if err != nil {
			return nil, err
		}
	}

	meta, err := codec.Default.Marshal(s.meta())
	if err != nil {
		return nil, err
	}
	return compress.AppendBlock(buf, meta, ct)
}

// Decode parses the binary cell format.
func Decode(data []byte) (*Snapshot, error) {
	if len(data) < fixedHeaderSize || !bytes.Equal(data[:8], []byte(Magic)) {
		return nil, fmt.Errorf("%w: missing %s magic", ErrCorrupt, Magic)
	}

	version := binary.LittleEndian.Uint16(data[8:])
	if version < 1 || version > Version {
		return nil, fmt.Errorf("%w: binary version %d", ErrUnsupportedFormat, version)
	}
	ct := compress.Type(data[10])
	if !ct.Valid() {
		return nil, fmt.Errorf("%w: %w: %d", ErrCorrupt, compress.ErrUnknownType, ct)
	}
	count := int(binary.LittleEndian.Uint32(data[12:]))
	nfields := int(binary.LittleEndian.Uint16(data[16:]))

	off := fixedHeaderSize
	names := make([]string, nfields)
	for i := range names {
		if len(data) < off+2 {
			return nil, fmt.Errorf("%w: truncated field table", ErrCorrupt)
		}
		n := int(binary.LittleEndian.Uint16(data[off:]))
		off += 2
		if len(data) < off+n {
			return nil, fmt.Errorf("%w: truncated field table", ErrCorrupt)
		}
		names[i] = string(data[off : off+n])
		off += n
	}

	block, n, err := readColumn(data[off:], ct, count*boxWidth)
	if err != nil {
		return nil, fmt.Errorf("%w: boxes: %w", ErrCorrupt, err)
	}
	off += n

	boxes := make([]geom.AABB, count)
	for i := range boxes {
		var v [6]float64
		for j := range v {
			v[j] = math.Float64frombits(binary.LittleEndian.Uint64(block[(i*6+j)*8:]))
		}
		box, err := geom.NewAABB(geom.Vec3{X: v[0], Y: v[1], Z: v[2]}, geom.Vec3{X: v[3], Y: v[4], Z: v[5]})
		if err != nil {
			return nil, fmt.Errorf("snapshot: cell %d: %w", i, err)
		}
		boxes[i] = box
	}

	snap := New(boxes)
	snap.Header.Format = FormatCells

	for _, name := range names {
		block, n, err := readColumn(data[off:], ct, count*8)
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrCorrupt, name, err)
		}
		off += n
		values := make([]float64, count)
		for i := range values {
			values[i] = math.Float64frombits(binary.LittleEndian.Uint64(block[i*8:]))
		}
		if err := snap.Fields.Add(name, values); err != nil {
			return nil, err
		}
	}

	block, _, err = compress.ReadBlock(data[off:], ct)
	if err != nil {
		return nil, fmt.Errorf("%w: meta: %w", ErrCorrupt, err)
	}
	if err := codec.Default.Unmarshal(block, &snap.Header.Meta); err != nil {
		return nil, fmt.Errorf("%w: meta: %w", ErrCorrupt, err)
	}
	if snap.Header.Meta == nil {
		snap.Header.Meta = map[string]any{}
	}
	snap.Header.Loader = loaderFromMeta(snap.Header.Meta)

	return snap, nil
}

// appendColumn writes n cells of width bytes each as blocks of at most
// chunkCells cells. put appends the encoding of cell i to raw.
func appendColumn(buf []byte, n, width int, ct compress.Type, put func(raw []byte, i int) []byte) ([]byte, error) {
	raw := make([]byte, 0, min(n, chunkCells)*width)
	for start := 0; ; start += chunkCells {
		end := min(start+chunkCells, n)
		raw = raw[:0]
		for i := start; i < end; i++ {
			raw = put(raw, i)
		}

		var err error
		if buf, err = compress.AppendBlock(buf, raw, ct); err != nil {
			return nil, err
		}
		if end >= n {
			return buf, nil
		}
	}
}

// readColumn reads blocks until size bytes are collected and returns them
// with the number of input bytes consumed.
func readColumn(data []byte, ct compress.Type, size int) ([]byte, int, error) {
	var col []byte
	off := 0
	for {
		block, n, err := compress.ReadBlock(data[off:], ct)
		if err != nil {
			return nil, 0, err
		}
		off += n

		if col == nil && len(block) == size {
			return block, off, nil
		}
		if len(block) == 0 || len(col)+len(block) > size {
			return nil, 0, fmt.Errorf("column blocks do not add up to %d bytes", size)
		}
		col = append(col, block...)
		if len(col) == size {
			return col, off, nil
		}
	}
}
