package codec

import "encoding/json"

// Default is the codec used for snapshots and CLI output unless another is
// configured.
var Default Codec = GoJSON{}

// JSON is the standard-library JSON codec. It produces the same documents
// as GoJSON and serves as a fallback when go-json misbehaves on a platform.
type JSON struct{}

var _ Indenter = JSON{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Name() string { return "json" }

func (JSON) MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return json.MarshalIndent(v, prefix, indent)
}
