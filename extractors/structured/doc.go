// Package structured implements the JSON/YAML/TOML extractor: a tree walk
// that flattens or summarizes nested structures into readable key: value
// lines, with optional type tagging, schema inference, and a fixed
// text-field keyword set folded into metadata.
package structured
