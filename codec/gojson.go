package codec

import gojson "github.com/goccy/go-json"

// GoJSON decodes method descriptions with github.com/goccy/go-json. Large
// batches of methods decode noticeably faster than with JSON.
type GoJSON struct{}

func (GoJSON) Marshal(v any) ([]byte, error) { return gojson.Marshal(v) }

func (GoJSON) Unmarshal(data []byte, v any) error { return gojson.Unmarshal(data, v) }

// Name returns "go-json".
func (GoJSON) Name() string { return "go-json" }
