package structured

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// parseDocument decodes data as JSON, YAML, or TOML into a generic tree.
// Top-level scalars and arrays are wrapped under a synthetic "value" key so
// callers always get a map to walk.
func parseDocument(data []byte, mimeType string) (map[string]any, error) {
	switch mimeType {
	case "application/json", "text/json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		return asMap(v), nil
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		var v any
		if err := yaml.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return asMap(normalizeYAML(v)), nil
	case "application/toml", "text/toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, err
		}
		return tree.ToMap(), nil
	default:
		return nil, fmt.Errorf("unsupported structured mime type %q", mimeType)
	}
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": v}
}

// normalizeYAML converts yaml.v3's map[string]interface{} nodes (already
// string-keyed, unlike yaml.v2) recursively, leaving scalars and slices
// untouched.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}
