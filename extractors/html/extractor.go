package html

import (
	"context"
	"os"
	"strings"

	nethtml "golang.org/x/net/html"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/imagesubsys"
	"github.com/wudi/kreuzberg-go/observability"
)

// Extractor handles text/html documents.
type Extractor struct {
	log observability.Logger
}

// New returns an HTML extractor with the given logger, or a no-op logger if
// log is nil.
func New(log observability.Logger) core.Extractor {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Extractor{log: log}
}

func (e *Extractor) SupportedMimeTypes() []string {
	return []string{"text/html", "application/xhtml+xml"}
}

func (e *Extractor) ExtractBytesSync(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	doc, err := nethtml.Parse(strings.NewReader(string(data)))
	if err != nil {
		e.log.Warn("html conversion failed, returning empty content", observability.Error("error", err))
		return core.ExtractionResult{Content: "", MimeType: "text/markdown"}, nil
	}

	result := core.ExtractionResult{
		Content:  convertToMarkdown(doc, renderOptionsFromConfig(cfg.HTMLToMarkdownConfig)),
		MimeType: "text/markdown",
		Metadata: extractMetadata(doc),
	}

	if cfg.ExtractImages {
		images := collectDataURIImages(doc, e.log)
		images = imagesubsys.EnforceBudget(images, e.log)
		if cfg.DeduplicateImages {
			images = imagesubsys.Deduplicate(images, e.log)
		}
		result.Images = images
	}

	return result, nil
}

func (e *Extractor) ExtractPathSync(path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading html file",
			core.NewErrorContext("html_extract", core.WithFile(path), core.WithCause(err)))
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
