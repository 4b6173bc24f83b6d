// Package kreuzberg is the public entry point for the document
// intelligence extraction core: a MIME-dispatch registry in front of the
// per-format extractors under extractors/, the OCR orchestrator, and the
// image subsystem.
package kreuzberg

import (
	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/extractors/email"
	"github.com/wudi/kreuzberg-go/extractors/html"
	"github.com/wudi/kreuzberg-go/extractors/image"
	"github.com/wudi/kreuzberg-go/extractors/pandoc"
	"github.com/wudi/kreuzberg-go/extractors/pdf"
	"github.com/wudi/kreuzberg-go/extractors/pptx"
	"github.com/wudi/kreuzberg-go/extractors/spreadsheet"
	"github.com/wudi/kreuzberg-go/extractors/structured"
	"github.com/wudi/kreuzberg-go/observability"
)

// defaultConstructors lists every built-in extractor, tried in this order
// after any caller-registered ones. Each Pandoc-bridge class is a
// separate constructor since each claims a distinct MIME set.
func defaultConstructors(log observability.Logger) []core.Constructor {
	return []core.Constructor{
		func() core.Extractor { return pdf.New(log) },
		func() core.Extractor { return html.New(log) },
		func() core.Extractor { return pptx.New(log) },
		func() core.Extractor { return spreadsheet.New(log) },
		func() core.Extractor { return email.New(log) },
		func() core.Extractor { return structured.New(log) },
		func() core.Extractor { return image.New(log) },
		func() core.Extractor { return pandoc.New(log) },
		func() core.Extractor { return pandoc.NewOfficeDocument(log) },
		func() core.Extractor { return pandoc.NewEbook(log) },
		func() core.Extractor { return pandoc.NewStructuredText(log) },
		func() core.Extractor { return pandoc.NewLaTeX(log) },
		func() core.Extractor { return pandoc.NewBibliography(log) },
		func() core.Extractor { return pandoc.NewXMLBased(log) },
		func() core.Extractor { return pandoc.NewTabularData(log) },
		func() core.Extractor { return pandoc.NewMisc(log) },
	}
}

// defaultRegistry is the process-wide registry used by the package-level
// ExtractBytes/ExtractFile/BatchExtractBytes functions and mutated by
// AddExtractor/RemoveExtractor. Construct a Client instead for an
// independent, per-caller registry (e.g. in tests).
var defaultRegistry = core.NewRegistry(defaultConstructors(observability.NopLogger{})...)

// Client wraps a Registry with the same entry points as the package-level
// functions, for callers that want an independent registry rather than
// the shared process-wide default.
type Client struct {
	registry *core.Registry
}

// NewClient returns a Client pre-populated with every built-in extractor,
// logging through log (or discarding logs if log is nil).
func NewClient(log observability.Logger) *Client {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Client{registry: core.NewRegistry(defaultConstructors(log)...)}
}

// AddExtractor registers constructor ahead of the built-in defaults.
func (c *Client) AddExtractor(constructor core.Constructor) { c.registry.Add(constructor) }

// RemoveExtractor removes every registered (non-default) extractor for
// which matches returns true. A silent no-op if none match.
func (c *Client) RemoveExtractor(matches func(core.Extractor) bool) { c.registry.Remove(matches) }

func (c *Client) lookup(mime string, cfg *core.ExtractionConfig) (core.Extractor, error) {
	ex, ok := c.registry.Get(mime, cfg)
	if !ok {
		return nil, core.NewValidationError(
			"no extractor registered for mime type "+mime,
			core.NewErrorContext("registry_lookup", core.WithExtra("mime_type", mime)))
	}
	return ex, nil
}

// ExtractBytes dispatches data to the extractor registered for mimeType.
func (c *Client) ExtractBytes(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	if err := cfg.Validate(); err != nil {
		return core.ExtractionResult{}, err
	}
	ex, err := c.lookup(mimeType, &cfg)
	if err != nil {
		return core.ExtractionResult{}, err
	}
	return ex.ExtractBytesSync(data, mimeType, cfg)
}

// ExtractFile dispatches the file at path to the extractor registered for
// mimeType. If mimeType is empty, it is inferred from the file extension;
// a ValidationError is returned if no extractor recognizes it.
func (c *Client) ExtractFile(path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	if err := cfg.Validate(); err != nil {
		return core.ExtractionResult{}, err
	}
	if mimeType == "" {
		mimeType = core.MIMETypeForPath(path)
		if mimeType == "" {
			return core.ExtractionResult{}, core.NewValidationError(
				"could not determine mime type for "+path,
				core.NewErrorContext("mime_detection", core.WithFile(path)))
		}
	}
	ex, err := c.lookup(mimeType, &cfg)
	if err != nil {
		return core.ExtractionResult{}, err
	}
	return ex.ExtractPathSync(path, mimeType, cfg)
}

// BatchInput pairs a document's bytes with its MIME type for
// BatchExtractBytes.
type BatchInput struct {
	Data     []byte
	MimeType string
}

// BatchExtractionResult preserves per-input success/failure, in input
// order, alongside the subset of inputs that succeeded or failed.
type BatchExtractionResult struct {
	Successful []IndexedResult
	Failed     []IndexedError
	ordered    []*core.ExtractionResult
}

// IndexedResult pairs a successful result with its position in the
// original batch.
type IndexedResult struct {
	Index  int
	Result core.ExtractionResult
}

// IndexedError pairs a failure with its position in the original batch.
type IndexedError struct {
	Index int
	Err   error
}

// Ordered returns one slot per input in original order: a non-nil result
// for successes, nil for failures.
func (b BatchExtractionResult) Ordered() []*core.ExtractionResult { return b.ordered }

// SuccessRate returns the fraction of inputs that succeeded, in [0,1].
// Returns 0 for an empty batch.
func (b BatchExtractionResult) SuccessRate() float64 {
	total := len(b.Successful) + len(b.Failed)
	if total == 0 {
		return 0
	}
	return float64(len(b.Successful)) / float64(total)
}

// BatchExtractBytes runs ExtractBytes over every input, preserving input
// order and collecting partial failures rather than aborting the batch.
func (c *Client) BatchExtractBytes(inputs []BatchInput, cfg core.ExtractionConfig) BatchExtractionResult {
	results := make([]core.ExtractionResult, len(inputs))
	errs := make([]error, len(inputs))
	for i, in := range inputs {
		results[i], errs[i] = c.ExtractBytes(in.Data, in.MimeType, cfg)
	}

	out := BatchExtractionResult{ordered: make([]*core.ExtractionResult, len(inputs))}
	for i := range inputs {
		if errs[i] != nil {
			out.Failed = append(out.Failed, IndexedError{Index: i, Err: errs[i]})
			continue
		}
		out.Successful = append(out.Successful, IndexedResult{Index: i, Result: results[i]})
		out.ordered[i] = &results[i]
	}
	return out
}

var defaultClient = &Client{registry: defaultRegistry}

// ExtractBytes dispatches data to the default, process-wide registry's
// extractor for mimeType.
func ExtractBytes(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return defaultClient.ExtractBytes(data, mimeType, cfg)
}

// ExtractFile dispatches the file at path to the default registry's
// extractor, inferring mimeType from the extension when empty.
func ExtractFile(path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return defaultClient.ExtractFile(path, mimeType, cfg)
}

// BatchExtractBytes runs ExtractBytes over every input against the
// default registry, preserving input order and partial failures.
func BatchExtractBytes(inputs []BatchInput, cfg core.ExtractionConfig) BatchExtractionResult {
	return defaultClient.BatchExtractBytes(inputs, cfg)
}

// AddExtractor registers constructor ahead of the built-in defaults on
// the default, process-wide registry.
func AddExtractor(constructor core.Constructor) { defaultClient.AddExtractor(constructor) }

// RemoveExtractor removes every default-registry extractor matching
// matches. A silent no-op if none match.
func RemoveExtractor(matches func(core.Extractor) bool) { defaultClient.RemoveExtractor(matches) }
