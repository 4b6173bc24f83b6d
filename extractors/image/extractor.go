package image

import (
	"bytes"
	"context"
	stdimage "image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/observability"
	"github.com/wudi/kreuzberg-go/ocr"
)

const ocrTargetDPI = 200

// Extractor handles standalone raster image files (PNG, JPEG, GIF, BMP,
// WebP, TIFF) by running them through the OCR Orchestrator.
type Extractor struct {
	log observability.Logger
}

// New returns an image extractor with the given logger, or a no-op logger
// if log is nil.
func New(log observability.Logger) core.Extractor {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Extractor{log: log}
}

func (e *Extractor) SupportedMimeTypes() []string {
	return []string{
		"image/png", "image/jpeg", "image/gif", "image/bmp", "image/webp", "image/tiff",
	}
}

func (e *Extractor) ExtractBytesSync(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	decoded, format, err := stdimage.Decode(bytes.NewReader(data))
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("decoding image",
			core.NewErrorContext("image_extract", core.WithCause(err)))
	}

	resampled := resampleForOCR(decoded, ocrTargetDPI)
	pngBytes, err := encodePNG(resampled)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("re-encoding resampled image",
			core.NewErrorContext("image_extract", core.WithCause(err)))
	}

	orchestrator := ocr.NewOrchestrator(ocr.ResolveEngine(cfg.OCRBackend))
	results, err := orchestrator.RecognizeBatch(context.Background(), []ocr.Input{
		{ID: "source", Image: pngBytes, Format: "png", DPI: ocrTargetDPI},
	})
	if err != nil {
		return core.ExtractionResult{}, core.NewOCRError("image ocr failed",
			core.NewErrorContext("image_extract", core.WithCause(err)))
	}

	content := ""
	if len(results) > 0 {
		content = results[0].PlainText
	}

	result := core.ExtractionResult{
		Content:  content,
		MimeType: "text/plain",
	}

	if cfg.ExtractImages {
		filename := "source_image"
		bounds := decoded.Bounds()
		result.Images = []core.ExtractedImage{{
			Data:       append([]byte(nil), data...),
			Format:     imageFormatFromDecoded(format),
			Filename:   &filename,
			Dimensions: &core.Dimensions{Width: uint32(bounds.Dx()), Height: uint32(bounds.Dy())},
		}}
	}

	return result, nil
}

func (e *Extractor) ExtractPathSync(path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading image file",
			core.NewErrorContext("image_extract", core.WithFile(path), core.WithCause(err)))
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

func encodePNG(img stdimage.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func imageFormatFromDecoded(format string) core.ImageFormat {
	switch format {
	case "jpeg":
		return core.ImageFormatJPEG
	case "gif":
		return core.ImageFormatGIF
	case "bmp":
		return core.ImageFormatBMP
	case "webp":
		return core.ImageFormatWebP
	case "tiff":
		return core.ImageFormatTIFF
	default:
		return core.ImageFormatPNG
	}
}
