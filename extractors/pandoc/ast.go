package pandoc

import (
	"encoding/json"
	"strings"

	"github.com/wudi/kreuzberg-go/core"
)

// node mirrors pandoc's tagged-union AST shape: {"t": NodeType, "c": payload}.
type node struct {
	Tag     string          `json:"t"`
	Content json.RawMessage `json:"c"`
}

type document struct {
	Meta   map[string]node `json:"meta"`
	Blocks []node          `json:"blocks"`
}

// metaKeyRemap maps pandoc's own metadata vocabulary onto the recognized
// metadata keys used across the extractor family.
var metaKeyRemap = map[string]string{
	"abstract":     core.MetaSummary,
	"date":         core.MetaCreatedAt,
	"contributors": core.MetaAuthors,
	"author":       core.MetaAuthors,
	"authors":      core.MetaAuthors,
	"institute":    core.MetaCategories,
	"title":        core.MetaTitle,
	"subtitle":     core.MetaSubject,
	"keywords":     core.MetaKeywords,
	"lang":         core.MetaLanguages,
	"language":     core.MetaLanguages,
}

var stringListMetaKeys = map[string]bool{
	core.MetaAuthors:    true,
	core.MetaLanguages:  true,
	core.MetaCategories: true,
	core.MetaKeywords:   true,
}

// parseDocument unmarshals a pandoc JSON AST document.
func parseDocument(astJSON []byte) (*document, error) {
	var doc document
	if err := json.Unmarshal(astJSON, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// extractMetadata walks the document's meta map and assembles extractor
// metadata, remapping pandoc's own field names onto the recognized set.
func extractMetadata(doc *document) core.Metadata {
	raw := make(map[string]any, len(doc.Meta))
	for key, value := range doc.Meta {
		target, ok := metaKeyRemap[key]
		if !ok {
			target = key
		}
		decoded := decodeMetaValue(value)
		if decoded == nil {
			continue
		}
		if existing, present := raw[target]; present {
			raw[target] = mergeMetaValues(existing, decoded)
		} else if stringListMetaKeys[target] {
			raw[target] = toStringList(decoded)
		} else {
			raw[target] = decoded
		}
	}
	return core.NormalizeMetadata(raw)
}

// mergeMetaValues combines two pandoc meta fields that remapped onto the
// same target key (e.g. both "author" and "contributors" become authors).
func mergeMetaValues(existing, next any) any {
	return append(toStringList(existing), toStringList(next)...)
}

func toStringList(v any) []string {
	switch value := v.(type) {
	case []string:
		return value
	case []any:
		out := make([]string, 0, len(value))
		for _, item := range value {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if value == "" {
			return nil
		}
		parts := strings.FieldsFunc(value, func(r rune) bool { return r == ',' || r == ';' })
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		return out
	default:
		return nil
	}
}

// decodeMetaValue resolves one of pandoc's MetaValue variants into a plain
// Go value: strings, string lists, or nested maps.
func decodeMetaValue(n node) any {
	switch n.Tag {
	case "MetaString":
		var s string
		if err := json.Unmarshal(n.Content, &s); err == nil {
			return s
		}
	case "MetaBool":
		var b bool
		if err := json.Unmarshal(n.Content, &b); err == nil {
			return b
		}
	case "MetaInlines":
		var inlines []node
		if err := json.Unmarshal(n.Content, &inlines); err == nil {
			return flattenInlines(inlines)
		}
	case "MetaBlocks":
		var blocks []node
		if err := json.Unmarshal(n.Content, &blocks); err == nil {
			return flattenBlocks(blocks)
		}
	case "MetaList":
		var items []node
		if err := json.Unmarshal(n.Content, &items); err == nil {
			out := make([]any, 0, len(items))
			for _, item := range items {
				if decoded := decodeMetaValue(item); decoded != nil {
					out = append(out, decoded)
				}
			}
			return out
		}
	case "MetaMap":
		var raw map[string]node
		if err := json.Unmarshal(n.Content, &raw); err == nil {
			out := make(map[string]any, len(raw))
			for k, v := range raw {
				out[k] = decodeMetaValue(v)
			}
			return out
		}
	}
	return nil
}

// flattenInlines renders a list of inline AST nodes to plain text, the
// way a Str/Space/Emph/Strong run would read in the source document.
func flattenInlines(inlines []node) string {
	var b strings.Builder
	for _, n := range inlines {
		switch n.Tag {
		case "Str":
			var s string
			_ = json.Unmarshal(n.Content, &s)
			b.WriteString(s)
		case "Space", "SoftBreak":
			b.WriteString(" ")
		case "LineBreak":
			b.WriteString("\n")
		case "Emph", "Strong", "Strikeout", "SmallCaps", "Underline":
			var nested []node
			if err := json.Unmarshal(n.Content, &nested); err == nil {
				b.WriteString(flattenInlines(nested))
			}
		case "Cite":
			var payload []json.RawMessage
			if err := json.Unmarshal(n.Content, &payload); err == nil && len(payload) == 2 {
				var nested []node
				if err := json.Unmarshal(payload[1], &nested); err == nil {
					b.WriteString(flattenInlines(nested))
				}
			}
		}
	}
	return b.String()
}

func flattenBlocks(blocks []node) string {
	var parts []string
	for _, n := range blocks {
		switch n.Tag {
		case "Plain", "Para":
			var inlines []node
			if err := json.Unmarshal(n.Content, &inlines); err == nil {
				if text := flattenInlines(inlines); text != "" {
					parts = append(parts, text)
				}
			}
		}
	}
	return strings.Join(parts, "\n\n")
}

// collectCitations walks every block in the document looking for Cite
// inline nodes and returns their citationId values in document order,
// repeated IDs included.
func collectCitations(doc *document) []string {
	var ids []string
	var walk func([]node)
	walk = func(nodes []node) {
		for _, n := range nodes {
			if n.Tag == "Cite" {
				var payload []json.RawMessage
				if err := json.Unmarshal(n.Content, &payload); err == nil && len(payload) == 2 {
					var citations []struct {
						ID string `json:"citationId"`
					}
					if err := json.Unmarshal(payload[0], &citations); err == nil {
						for _, c := range citations {
							if c.ID != "" {
								ids = append(ids, c.ID)
							}
						}
					}
				}
			}
			var nested []node
			if json.Unmarshal(n.Content, &nested) == nil {
				walk(nested)
			}
		}
	}
	walk(doc.Blocks)
	return ids
}
