package codec

import (
	"encoding/json"
)

// JSON decodes method descriptions with encoding/json.
//
// Slot keys decode through versionmap.Key's JSON methods and ops through
// dataflow.Op's text methods, so both codecs accept the same documents.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns "json".
func (JSON) Name() string { return "json" }

// Default is the codec the Analyzer and the CLI use when none is configured.
var Default Codec = GoJSON{}
