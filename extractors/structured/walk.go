package structured

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wudi/kreuzberg-go/core"
)

var defaultTextFieldKeys = map[string]bool{
	"title": true, "name": true, "subject": true, "description": true,
	"content": true, "body": true, "text": true, "message": true,
}

// renderTree walks tree and returns the key: value lines plus the set of
// text-field values to fold into metadata.
func renderTree(tree map[string]any, cfg core.JSONConfig) (lines []string, textFields map[string]string) {
	textFields = make(map[string]string)
	isTextField := func(key string) bool {
		leaf := key
		if idx := strings.LastIndex(key, "."); idx >= 0 {
			leaf = key[idx+1:]
		}
		leaf = strings.ToLower(leaf)
		if defaultTextFieldKeys[leaf] {
			return true
		}
		for _, pattern := range cfg.CustomTextFieldPatterns {
			if strings.EqualFold(pattern, leaf) {
				return true
			}
		}
		return false
	}

	var walk func(key string, value any)
	walk = func(key string, value any) {
		switch v := value.(type) {
		case map[string]any:
			if !cfg.FlattenNestedObjects {
				lines = append(lines, fmt.Sprintf("%s: [nested object with %d fields]", key, len(v)))
				return
			}
			for _, k := range sortedKeys(v) {
				childKey := k
				if key != "" {
					childKey = key + "." + k
				}
				walk(childKey, v[k])
			}
		default:
			rendered := renderScalar(value)
			line := fmt.Sprintf("%s: %s", key, rendered)
			if cfg.IncludeTypeInfo {
				line = fmt.Sprintf("%s (%s)", line, typeTag(value))
			}
			lines = append(lines, line)
			if isTextField(key) {
				textFields[key] = rendered
			}
		}
	}

	for _, k := range sortedKeys(tree) {
		walk(k, tree[k])
	}
	return lines, textFields
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderScalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	case json.Number:
		return t.String()
	case []any:
		parts := make([]string, len(t))
		for i, item := range t {
			parts[i] = renderScalar(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	default:
		return fmt.Sprintf("%v", t)
	}
}

func typeTag(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			return "float"
		}
		return "int"
	case float64:
		return "float"
	case float32:
		return "float"
	case int, int64, int32:
		return "int"
	default:
		return "string"
	}
}
