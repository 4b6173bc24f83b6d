package structured

import "github.com/wudi/kreuzberg-go/core"

// buildSchema produces a shape description of tree honoring cfg.MaxDepth
// (0 means unlimited) and cfg.ArrayItemLimit (0 means unlimited).
func buildSchema(tree map[string]any, cfg core.JSONConfig) map[string]any {
	return schemaFor(tree, cfg, 0)
}

func schemaFor(value any, cfg core.JSONConfig, depth int) map[string]any {
	if cfg.MaxDepth > 0 && depth > cfg.MaxDepth {
		return map[string]any{"max_depth_reached": true}
	}

	switch v := value.(type) {
	case map[string]any:
		fields := make(map[string]any, len(v))
		for _, k := range sortedKeys(v) {
			fields[k] = schemaFor(v[k], cfg, depth+1)
		}
		return map[string]any{"type": "object", "fields": fields}
	case []any:
		if cfg.ArrayItemLimit > 0 && len(v) > cfg.ArrayItemLimit {
			return map[string]any{"type": "array", "truncated": true, "length": len(v)}
		}
		var itemSchema any
		if len(v) > 0 {
			itemSchema = schemaFor(v[0], cfg, depth+1)
		}
		return map[string]any{"type": "array", "length": len(v), "items": itemSchema}
	default:
		return map[string]any{"type": typeTag(value)}
	}
}
