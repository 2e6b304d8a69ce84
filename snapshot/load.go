package snapshot

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/hupe1980/sightline/blobstore"
	"github.com/hupe1980/sightline/codec"
	"github.com/hupe1980/sightline/internal/compress"
)

// Format names recorded in Header.Format.
const (
	FormatJSON  = "json"
	FormatCells = "cells"
)

// Options configures Load and Save.
type Options struct {
	// Fields restricts the loaded fields. Nil loads every field.
	Fields []string

	// Codec decodes and encodes JSON snapshots. Nil selects codec.Default.
	Codec codec.Codec

	// Compression is used by Save for the binary format.
	Compression compress.Type
}

// DefaultOptions contains the default options for Load and Save.
var DefaultOptions = Options{
	Compression: compress.LZ4,
}

// WithFields restricts loading to the named fields.
func WithFields(names ...string) func(o *Options) {
	return func(o *Options) {
		o.Fields = slices.Clone(names)
	}
}

// WithCodec sets the JSON codec.
func WithCodec(c codec.Codec) func(o *Options) {
	return func(o *Options) {
		o.Codec = c
	}
}

// WithCompression sets the block compression used by Save.
func WithCompression(ct compress.Type) func(o *Options) {
	return func(o *Options) {
		o.Compression = ct
	}
}

// FormatOf returns the snapshot format implied by name's extension.
func FormatOf(name string) (string, error) {
	switch ext := strings.ToLower(path.Ext(name)); ext {
	case ".json":
		return FormatJSON, nil
	case ".cells":
		return FormatCells, nil
	case ".h5", ".hdf5":
		return "", fmt.Errorf("%w: HDF5 snapshot %q", ErrUnsupportedFormat, name)
	default:
		return "", fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
}

// Load reads the snapshot name from store.
func Load(ctx context.Context, store blobstore.BlobStore, name string, optFns ...func(o *Options)) (*Snapshot, error) {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}

	data, err := blobstore.Get(ctx, store, name)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open %q: %w", name, err)
	}

	var snap *Snapshot
	switch format {
	case FormatJSON:
		snap, err = DecodeJSON(data, opts.Codec)
	case FormatCells:
		snap, err = Decode(data)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: load %q: %w", name, err)
	}

	if opts.Fields != nil {
		fields, err := snap.Fields.Select(opts.Fields...)
		if err != nil {
			return nil, fmt.Errorf("snapshot: load %q: %w", name, err)
		}
		snap.Fields = fields
		snap.Header.RequestedFields = slices.Clone(opts.Fields)
	}
	snap.Header.Source = name

	return snap, nil
}

// Save writes s to store under name in the format implied by its extension.
// The blob becomes visible only when the write completes.
func Save(ctx context.Context, store blobstore.BlobStore, name string, s *Snapshot, optFns ...func(o *Options)) error {
	opts := DefaultOptions
	for _, fn := range optFns {
		fn(&opts)
	}

	format, err := FormatOf(name)
	if err != nil {
		return err
	}

	var data []byte
	switch format {
	case FormatJSON:
		data, err = EncodeJSON(s, opts.Codec)
	case FormatCells:
		data, err = Encode(s, opts.Compression)
	}
	if err != nil {
		return fmt.Errorf("snapshot: encode %q: %w", name, err)
	}

	w, err := store.Create(ctx, name)
	if err != nil {
		return fmt.Errorf("snapshot: create %q: %w", name, err)
	}
	if _, err := w.Write(data); err != nil {
		if a, ok := w.(blobstore.Aborter); ok {
			_ = a.Abort()
		}
		return fmt.Errorf("snapshot: write %q: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("snapshot: write %q: %w", name, err)
	}
	return nil
}
