package structured

import (
	"context"
	"os"
	"strings"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/observability"
)

// Extractor handles application/json, YAML, and TOML documents.
type Extractor struct {
	log observability.Logger
}

// New returns a structured-data extractor with the given logger, or a
// no-op logger if log is nil.
func New(log observability.Logger) core.Extractor {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Extractor{log: log}
}

func (e *Extractor) SupportedMimeTypes() []string {
	return []string{
		"application/json", "text/json",
		"application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml",
		"application/toml", "text/toml",
	}
}

func (e *Extractor) ExtractBytesSync(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	tree, err := parseDocument(data, mimeType)
	if err != nil {
		meta := core.Metadata{}
		meta.SetParseError(err.Error())
		return core.ExtractionResult{Content: string(data), MimeType: mimeType, Metadata: meta}, nil
	}

	lines, textFields := renderTree(tree, cfg.JSONConfig)
	result := core.ExtractionResult{
		Content:  strings.Join(lines, "\n"),
		MimeType: "text/plain",
	}

	raw := map[string]any{}
	extraKeys := make([]string, 0, len(textFields))
	for k, v := range textFields {
		leaf := k
		if idx := strings.LastIndex(k, "."); idx >= 0 {
			leaf = k[idx+1:]
		}
		raw[leaf] = v
		extraKeys = append(extraKeys, leaf)
	}
	result.Metadata = core.NormalizeMetadata(raw, extraKeys...)

	if cfg.JSONConfig.ExtractSchema {
		result.Metadata.Set("json_schema", buildSchema(tree, cfg.JSONConfig))
	}

	return result, nil
}

func (e *Extractor) ExtractPathSync(path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading structured data file",
			core.NewErrorContext("structured_extract", core.WithFile(path), core.WithCause(err)))
	}
	return e.ExtractBytesSync(data, mimeType, cfg)
}

func (e *Extractor) ExtractBytesAsync(ctx context.Context, data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.AsyncFromSync(ctx, func() (core.ExtractionResult, error) {
		return e.ExtractBytesSync(data, mimeType, cfg)
	})
}

func (e *Extractor) ExtractPathAsync(ctx context.Context, path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.AsyncFromSync(ctx, func() (core.ExtractionResult, error) {
		return e.ExtractPathSync(path, mimeType, cfg)
	})
}
