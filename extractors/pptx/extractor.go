package pptx

import (
	"archive/zip"
	"bytes"
	"context"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/imagesubsys"
	"github.com/wudi/kreuzberg-go/observability"
)

// Extractor handles OOXML presentation containers (PPTX).
type Extractor struct {
	log observability.Logger
}

// New returns a PPTX extractor with the given logger, or a no-op logger if
// log is nil.
func New(log observability.Logger) core.Extractor {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Extractor{log: log}
}

func (e *Extractor) SupportedMimeTypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	}
}

func (e *Extractor) ExtractBytesSync(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("opening presentation archive",
			core.NewErrorContext("pptx_extract", core.WithCause(err)))
	}

	p, err := openPresentation(zr)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading presentation structure",
			core.NewErrorContext("pptx_extract", core.WithCause(err)))
	}

	var sections []string
	allFonts := map[string]bool{}
	var images []core.ExtractedImage

	for i, slide := range p.slides {
		doc, err := readXML(p.files, slide.path)
		if err != nil {
			return core.ExtractionResult{}, core.NewParsingError("reading slide XML",
				core.NewErrorContext("pptx_extract", core.WithCause(err)))
		}

		rels, _ := readRelationships(p.files, slide.relsPath)
		shapes, fonts := walkSlideShapes(doc, rels, slide.path)
		collectFonts(allFonts, setToSlice(fonts))

		if cfg.ExtractImages {
			images = append(images, collectSlideImages(p, shapes, i)...)
		}

		notes := p.slideNotesText(slide)
		sections = append(sections, renderSlide(i, shapes, notes))
	}

	meta := p.coreProperties()
	if len(allFonts) > 0 {
		meta.Set(core.MetaFonts, sortedKeys(allFonts))
	}

	result := core.ExtractionResult{
		Content:  strings.Join(sections, "\n"),
		MimeType: "text/markdown",
		Metadata: meta,
	}

	if cfg.ExtractImages {
		images = imagesubsys.EnforceBudget(images, e.log)
		if cfg.DeduplicateImages {
			images = imagesubsys.Deduplicate(images, e.log)
		}
		result.Images = images
	}

	return result, nil
}

func (e *Extractor) ExtractPathSync(filePath string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading presentation file",
			core.NewErrorContext("pptx_extract", core.WithFile(filePath), core.WithCause(err)))
	}
	return e.ExtractBytesSync(data, mimeType, cfg)
}

func (e *Extractor) ExtractBytesAsync(ctx context.Context, data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.AsyncFromSync(ctx, func() (core.ExtractionResult, error) {
		return e.ExtractBytesSync(data, mimeType, cfg)
	})
}

func (e *Extractor) ExtractPathAsync(ctx context.Context, filePath string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.AsyncFromSync(ctx, func() (core.ExtractionResult, error) {
		return e.ExtractPathSync(filePath, mimeType, cfg)
	})
}

func collectSlideImages(p *presentation, shapes []slideShape, slideIndex int) []core.ExtractedImage {
	var images []core.ExtractedImage
	for _, shape := range shapes {
		if shape.kind != shapePicture || shape.picture.mediaPath == "" {
			continue
		}
		f, ok := p.files[shape.picture.mediaPath]
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			continue
		}
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(rc); err != nil {
			rc.Close()
			continue
		}
		rc.Close()

		filename := shape.picture.name
		pageNumber := slideIndex
		images = append(images, core.ExtractedImage{
			Data:       buf.Bytes(),
			Format:     imageFormatFromPath(shape.picture.mediaPath),
			Filename:   &filename,
			PageNumber: &pageNumber,
		})
	}
	return images
}

func imageFormatFromPath(mediaPath string) core.ImageFormat {
	switch strings.ToLower(path.Ext(mediaPath)) {
	case ".jpg", ".jpeg":
		return core.ImageFormatJPEG
	case ".gif":
		return core.ImageFormatGIF
	case ".bmp":
		return core.ImageFormatBMP
	case ".tiff", ".tif":
		return core.ImageFormatTIFF
	case ".webp":
		return core.ImageFormatWebP
	default:
		return core.ImageFormatPNG
	}
}

func setToSlice(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}

func sortedKeys(set map[string]bool) []string {
	out := setToSlice(set)
	sort.Strings(out)
	return out
}
