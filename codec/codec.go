// Package codec centralizes JSON encoding for snapshot documents, ray
// batch files and CLI output.
//
// Formats that persist encoded bytes record the codec name so the matching
// codec can be selected by ByName when reading them back.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Codec converts values to and from JSON documents. Codecs are stateless
// and may be shared between goroutines.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Indenter is implemented by codecs that can produce indented output.
type Indenter interface {
	MarshalIndent(v any, prefix, indent string) ([]byte, error)
}

// ByName resolves a codec from the name recorded next to encoded data.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MarshalIndent encodes v with two-space indentation. Codecs without an
// Indenter are re-indented after Marshal. A nil codec means Default.
func MarshalIndent(c Codec, v any) ([]byte, error) {
	if c == nil {
		c = Default
	}
	if in, ok := c.(Indenter); ok {
		return in.MarshalIndent(v, "", "  ")
	}

	data, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, data, "", "  "); err != nil {
		return nil, fmt.Errorf("codec %s: indent: %w", c.Name(), err)
	}
	return buf.Bytes(), nil
}

// MustMarshal panics on encoding errors. Tests use it for fixtures.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s: marshal %T: %w", c.Name(), v, err))
	}
	return b
}
