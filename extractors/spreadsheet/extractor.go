package spreadsheet

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"runtime"
	"strings"
	"sync"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/observability"
)

// Extractor handles OOXML spreadsheet workbooks (XLSX).
type Extractor struct {
	log observability.Logger
}

// New returns a spreadsheet extractor with the given logger, or a no-op
// logger if log is nil.
func New(log observability.Logger) core.Extractor {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Extractor{log: log}
}

func (e *Extractor) SupportedMimeTypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		"application/vnd.ms-excel.sheet.macroEnabled.12",
	}
}

func (e *Extractor) ExtractBytesSync(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("opening spreadsheet archive",
			core.NewErrorContext("spreadsheet_extract", core.WithCause(err)))
	}

	wb, err := openWorkbook(zr)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading workbook structure",
			core.NewErrorContext("spreadsheet_extract", core.WithCause(err)))
	}

	sections, errs := convertSheetsParallel(wb)
	if len(errs) > 0 {
		return core.ExtractionResult{}, core.NewAggregateParsingError("spreadsheet_extract", errs)
	}

	meta := core.Metadata{}
	names := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		names[i] = s.name
	}
	meta.Set("sheet_names", names)

	return core.ExtractionResult{
		Content:  strings.Join(sections, "\n"),
		MimeType: "text/markdown",
		Metadata: meta,
	}, nil
}

func (e *Extractor) ExtractPathSync(path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading spreadsheet file",
			core.NewErrorContext("spreadsheet_extract", core.WithFile(path), core.WithCause(err)))
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

// convertSheetsParallel renders every sheet's Markdown table concurrently,
// bounding the worker pool the same way the OCR Orchestrator bounds its
// batch dispatch. A failure on one sheet does not stop the others; all
// per-sheet errors are collected and returned together.
func convertSheetsParallel(wb *workbook) ([]string, []error) {
	n := len(wb.sheets)
	sections := make([]string, n)
	errs := make([]error, n)

	poolSize := runtime.NumCPU()
	if poolSize > n {
		poolSize = n
	}
	if poolSize < 1 {
		poolSize = 1
	}

	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup

	for i, s := range wb.sheets {
		sem <- struct{}{}
		wg.Add(1)
		go func(i int, s sheet) {
			defer wg.Done()
			defer func() { <-sem }()

			g, err := wb.readSheetGrid(s.path)
			if err != nil {
				errs[i] = err
				return
			}
			sections[i] = renderSheetMarkdown(s.name, g)
		}(i, s)
	}
	wg.Wait()

	collected := make([]error, 0)
	for _, err := range errs {
		if err != nil {
			collected = append(collected, err)
		}
	}
	if len(collected) > 0 {
		return nil, collected
	}
	return sections, nil
}
