package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/conceptgraph/internal/graph"
)

// marshalProps converts properties to JSON TEXT for storage.
// HTML escaping is disabled so URIs containing & < > are stored verbatim.
// Keys come out sorted (encoding/json sorts map keys).
func marshalProps(props graph.Properties) (string, error) {
	if len(props) == 0 {
		return "{}", nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(map[string]any(props)); err != nil {
		return "", fmt.Errorf("marshal props: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalProps parses JSON TEXT into properties.
// Numbers decode as int64 when integral and float64 otherwise, so large
// ids and positions keep their precision.
func unmarshalProps(data string) (graph.Properties, error) {
	props := graph.Properties{}
	if data == "" || data == "{}" {
		return props, nil
	}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("unmarshal props: %w", err)
	}
	for k, v := range raw {
		props[k] = narrowNumber(v)
	}
	return props, nil
}

func narrowNumber(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case []any:
		for i := range x {
			x[i] = narrowNumber(x[i])
		}
		return x
	case map[string]any:
		for k := range x {
			x[k] = narrowNumber(x[k])
		}
		return x
	default:
		return v
	}
}
