package codec

import (
	"encoding/json"
)

// JSON is the standard-library JSON codec. It is the most portable option
// for manifests that other tooling (Python exporters, shell scripts) also
// reads and writes.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// Default is the codec used when callers do not pick one. Manifest parsing
// and catalog publication both go through it.
var Default Codec = GoJSON{}
