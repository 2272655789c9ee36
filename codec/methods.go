package codec

import (
	"bytes"
	"fmt"

	"github.com/hupe1980/ssaflow/dataflow"
)

// DecodeMethods parses method descriptions with c (Default if nil).
// The input is either a JSON array of methods or a single method object.
// A null entry in an array is rejected.
func DecodeMethods(c Codec, data []byte) ([]*dataflow.Method, error) {
	if c == nil {
		c = Default
	}

	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var m dataflow.Method
		if err := c.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("codec %s: method: %w", c.Name(), err)
		}
		return []*dataflow.Method{&m}, nil
	}

	var methods []*dataflow.Method
	if err := c.Unmarshal(data, &methods); err != nil {
		return nil, fmt.Errorf("codec %s: methods: %w", c.Name(), err)
	}
	for i, m := range methods {
		if m == nil {
			return nil, fmt.Errorf("codec %s: method %d is null", c.Name(), i)
		}
	}
	return methods, nil
}

// EncodeMethods is the inverse of DecodeMethods for a list of methods.
func EncodeMethods(c Codec, methods []*dataflow.Method) ([]byte, error) {
	if c == nil {
		c = Default
	}
	data, err := c.Marshal(methods)
	if err != nil {
		return nil, fmt.Errorf("codec %s: methods: %w", c.Name(), err)
	}
	return data, nil
}
