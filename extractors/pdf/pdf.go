package pdf

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/imagesubsys"
	"github.com/wudi/kreuzberg-go/observability"
	"github.com/wudi/kreuzberg-go/ocr"
	"github.com/wudi/kreuzberg-go/pdf/lowlevel"
)

// Extractor handles application/pdf documents.
type Extractor struct {
	log observability.Logger
}

// New returns a PDF extractor with the given logger, or a no-op logger if
// log is nil.
func New(log observability.Logger) core.Extractor {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Extractor{log: log}
}

func (e *Extractor) SupportedMimeTypes() []string {
	return []string{"application/pdf"}
}

func (e *Extractor) ExtractBytesSync(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	tmp, err := os.CreateTemp("", "kreuzberg-pdf-*.pdf")
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("spilling pdf bytes to a temp file",
			core.NewErrorContext("pdf_extract_bytes", core.WithCause(err)))
	}
	path := tmp.Name()
	defer os.Remove(path)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return core.ExtractionResult{}, core.NewParsingError("spilling pdf bytes to a temp file",
			core.NewErrorContext("pdf_extract_bytes", core.WithCause(err)))
	}
	if err := tmp.Close(); err != nil {
		return core.ExtractionResult{}, core.NewParsingError("spilling pdf bytes to a temp file",
			core.NewErrorContext("pdf_extract_bytes", core.WithCause(err)))
	}
	return e.ExtractPathSync(path, mimeType, cfg)
}

func (e *Extractor) ExtractPathSync(path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	unlock := lockPath(canonicalPath(path))
	defer unlock()

	dec, err := openDocument(path, cfg.PDFPassword.Passwords())
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("opening pdf document",
			core.NewErrorContext("pdf_extract", core.WithFile(path), core.WithCause(err)))
	}

	ext, err := lowlevel.New(dec)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading pdf structure",
			core.NewErrorContext("pdf_extract", core.WithFile(path), core.WithCause(err)))
	}

	meta := ext.ExtractMetadata()
	content, err := e.extractContent(ext, meta.PageCount, cfg)
	if err != nil {
		return core.ExtractionResult{}, err
	}

	result := core.ExtractionResult{
		Content:  content,
		MimeType: "text/plain",
		Metadata: buildMetadata(meta),
	}

	if cfg.ExtractImages {
		images, err := e.extractImages(ext, cfg)
		if err != nil {
			return core.ExtractionResult{}, err
		}
		result.Images = images
		if len(images) > 0 && cfg.OCRExtractedImages {
			orchestrator := ocr.NewOrchestrator(ocr.ResolveEngine(cfg.EffectiveImageOCRBackend()))
			result.ImageOCRResults = imagesubsys.DispatchOCR(context.Background(), orchestrator, images, cfg, e.log)
		}
	}

	tables, err := extractTables(ext, cfg)
	if err != nil {
		return core.ExtractionResult{}, err
	}
	if len(tables) > 0 {
		result.Tables = tables
		result.Metadata.Set(core.MetaTableCount, strconv.Itoa(len(tables)))
		result.Metadata.Set(core.MetaTablesSummary, tablesSummary(tables))
	}

	return result, nil
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

// extractContent runs the searchable-text path and falls back to the OCR
// path when forced, when the searchable path fails outright, or when the
// corruption validator rejects the result.
func (e *Extractor) extractContent(ext *lowlevel.Extractor, pageCount int, cfg core.ExtractionConfig) (string, error) {
	if pageCount == 0 {
		return "", nil
	}

	if !cfg.ForceOCR {
		texts, err := ext.ExtractText()
		if err == nil {
			content := joinPageText(texts)
			if textPassesCorruptionValidator(content) {
				return content, nil
			}
			e.log.Debug("searchable text failed corruption validation, falling back to OCR")
		} else {
			e.log.Debug("searchable text extraction failed, falling back to OCR", observability.Error("error", err))
		}
	}

	return e.extractViaOCR(ext, pageCount, cfg)
}

func joinPageText(pages []lowlevel.PageText) string {
	parts := make([]string, len(pages))
	for i, p := range pages {
		parts[i] = p.Content
	}
	return strings.Join(parts, "\n")
}

// extractViaOCR renders each page to an image (the largest embedded raster
// image on that page; see the PDF engine's page rasterization note) and
// submits them to the OCR orchestrator as a single bounded batch,
// preserving page order on concatenation. A page with no embedded image is
// skipped rather than failing the whole document.
func (e *Extractor) extractViaOCR(ext *lowlevel.Extractor, pageCount int, cfg core.ExtractionConfig) (string, error) {
	assets, err := ext.ExtractImages()
	if err != nil {
		return "", core.NewParsingError("collecting pdf page images for ocr",
			core.NewErrorContext("pdf_extract_ocr", core.WithCause(err)))
	}
	perPage := largestImagePerPage(assets)

	var inputs []ocr.Input
	for page := 0; page < pageCount; page++ {
		asset, ok := perPage[page]
		if !ok {
			continue
		}
		png, err := lowlevel.EncodePNG(asset)
		if err != nil {
			e.log.Warn("skipping page image that could not be re-encoded",
				observability.Int("page", page), observability.Error("error", err))
			continue
		}
		inputs = append(inputs, ocr.Input{
			ID:        fmt.Sprintf("page-%d", page),
			Image:     png,
			Format:    "png",
			PageIndex: page,
			DPI:       200,
		})
	}

	if len(inputs) == 0 {
		return "", nil
	}

	orchestrator := ocr.NewOrchestrator(ocr.ResolveEngine(cfg.OCRBackend))
	results, err := orchestrator.RecognizeBatch(context.Background(), inputs)
	if err != nil {
		return "", core.NewOCRError("pdf page ocr failed",
			core.NewErrorContext("pdf_extract_ocr", core.WithCause(err)))
	}

	parts := make([]string, len(results))
	for i, res := range results {
		parts[i] = res.PlainText
	}
	return strings.Join(parts, "\n\n"), nil
}

func (e *Extractor) extractImages(ext *lowlevel.Extractor, cfg core.ExtractionConfig) ([]core.ExtractedImage, error) {
	assets, err := ext.ExtractImages()
	if err != nil {
		return nil, core.NewParsingError("extracting pdf images",
			core.NewErrorContext("pdf_extract_images", core.WithCause(err)))
	}

	images := make([]core.ExtractedImage, 0, len(assets))
	for _, asset := range assets {
		png, err := lowlevel.EncodePNG(asset)
		if err != nil {
			e.log.Warn("dropping image that could not be re-encoded",
				observability.Int("page", asset.Page), observability.Error("error", err))
			continue
		}
		page := asset.Page
		images = append(images, core.ExtractedImage{
			Data:       png,
			Format:     core.ImageFormatPNG,
			PageNumber: &page,
			Dimensions: &core.Dimensions{Width: uint32(asset.Width), Height: uint32(asset.Height)},
		})
	}

	images = imagesubsys.EnforceBudget(images, e.log)
	if cfg.DeduplicateImages {
		images = imagesubsys.Deduplicate(images, e.log)
	}
	return images, nil
}

func buildMetadata(meta lowlevel.Metadata) core.Metadata {
	raw := map[string]any{}
	if meta.Info.Title != "" {
		raw[core.MetaTitle] = meta.Info.Title
	}
	if meta.Info.Author != "" {
		raw[core.MetaAuthors] = []string{meta.Info.Author}
	}
	if meta.Info.Subject != "" {
		raw[core.MetaSubject] = meta.Info.Subject
	}
	if len(meta.Info.Keywords) > 0 {
		raw[core.MetaKeywords] = meta.Info.Keywords
	}
	if meta.Lang != "" {
		raw[core.MetaLanguages] = []string{meta.Lang}
	}
	m := core.NormalizeMetadata(raw)
	return m
}
