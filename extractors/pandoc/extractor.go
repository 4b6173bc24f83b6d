package pandoc

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/observability"
)

// class bundles a pandoc "read" format name with the MIME types that
// should be routed to it. Every class shares the same bridge logic;
// only the claimed MIME set and the --from format passed to pandoc
// differ between them.
type class struct {
	mimeTypes []string
	format    string
}

var (
	markdownClass      = class{[]string{"text/markdown", "text/x-markdown"}, "markdown"}
	officeDocumentClass = class{[]string{
		"application/vnd.oasis.opendocument.text",
		"application/rtf",
		"text/rtf",
	}, "odt"}
	ebookClass = class{[]string{"application/epub+zip"}, "epub"}
	structuredTextClass = class{[]string{
		"text/x-rst",
		"text/x-org",
		"text/x-textile",
	}, "rst"}
	latexClass      = class{[]string{"application/x-latex", "text/x-tex"}, "latex"}
	bibliographyClass = class{[]string{
		"application/x-bibtex",
		"application/x-research-info-systems",
	}, "bibtex"}
	xmlBasedClass = class{[]string{
		"application/docbook+xml",
		"application/x-jats+xml",
	}, "docbook"}
	tabularDataClass = class{[]string{"text/csv", "text/tab-separated-values"}, "csv"}
	miscClass       = class{[]string{"application/x-ipynb+json", "text/x-man"}, "ipynb"}
)

// Extractor is a core.Extractor backed by the external pandoc binary. A
// single implementation serves every bridge class; only the claimed MIME
// set and the pandoc --from format differ between instances.
type Extractor struct {
	log   observability.Logger
	class class
}

// New constructs the Markdown bridge extractor. Use the NewXxx
// constructors below for the other eight bridge classes.
func New(log observability.Logger) core.Extractor { return newForClass(log, markdownClass) }

func NewOfficeDocument(log observability.Logger) core.Extractor {
	return newForClass(log, officeDocumentClass)
}
func NewEbook(log observability.Logger) core.Extractor { return newForClass(log, ebookClass) }
func NewStructuredText(log observability.Logger) core.Extractor {
	return newForClass(log, structuredTextClass)
}
func NewLaTeX(log observability.Logger) core.Extractor { return newForClass(log, latexClass) }
func NewBibliography(log observability.Logger) core.Extractor {
	return newForClass(log, bibliographyClass)
}
func NewXMLBased(log observability.Logger) core.Extractor { return newForClass(log, xmlBasedClass) }
func NewTabularData(log observability.Logger) core.Extractor {
	return newForClass(log, tabularDataClass)
}
func NewMisc(log observability.Logger) core.Extractor { return newForClass(log, miscClass) }

func newForClass(log observability.Logger, c class) core.Extractor {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Extractor{log: log, class: c}
}

func (e *Extractor) SupportedMimeTypes() []string { return e.class.mimeTypes }

func (e *Extractor) ExtractBytesSync(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	ctx := context.Background()

	astJSON, markdown, err := convert(ctx, data, e.class.format)
	if err != nil {
		return core.ExtractionResult{}, err
	}

	doc, err := parseDocument(astJSON)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("decoding pandoc AST output",
			core.NewErrorContext("pandoc_extract", core.WithCause(err)))
	}

	metadata := extractMetadata(doc)
	if citations := collectCitations(doc); len(citations) > 0 {
		if existing, ok := metadata.Get(core.MetaCitations); ok {
			if list, ok := existing.([]string); ok {
				citations = append(append([]string(nil), list...), citations...)
			}
		}
		metadata.Set(core.MetaCitations, citations)
	}

	result := core.ExtractionResult{
		Content:  strings.TrimSpace(markdown),
		MimeType: "text/markdown",
		Metadata: metadata,
	}

	if cfg.ExtractImages {
		images, err := e.collectImages(ctx, data)
		if err != nil {
			e.log.Warn("pandoc media extraction failed", observability.Error("error", err))
		} else {
			result.Images = images
		}
	}

	return result, nil
}

func (e *Extractor) ExtractPathSync(filePath string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return core.ExtractionResult{}, core.NewParsingError("reading input file",
			core.NewErrorContext("pandoc_extract", core.WithFile(filePath), core.WithCause(err)))
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

var imageExtensions = map[string]core.ImageFormat{
	".png":  core.ImageFormatPNG,
	".jpg":  core.ImageFormatJPEG,
	".jpeg": core.ImageFormatJPEG,
	".gif":  core.ImageFormatGIF,
	".bmp":  core.ImageFormatBMP,
	".tif":  core.ImageFormatTIFF,
	".tiff": core.ImageFormatTIFF,
	".webp": core.ImageFormatWebP,
}

// collectImages runs pandoc a third time with --extract-media and reads
// back every file pandoc wrote into the media directory. A failure here
// is non-fatal to the caller; it simply means no images are returned.
func (e *Extractor) collectImages(ctx context.Context, data []byte) ([]core.ExtractedImage, error) {
	mediaDir, cleanup, err := extractMedia(ctx, data, e.class.format)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	var paths []string
	err = filepath.Walk(mediaDir, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		if _, ok := imageExtensions[strings.ToLower(filepath.Ext(p))]; ok {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	images := make([]core.ExtractedImage, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			continue
		}
		name := filepath.Base(p)
		images = append(images, core.ExtractedImage{
			Data:     raw,
			Format:   imageExtensions[strings.ToLower(filepath.Ext(p))],
			Filename: &name,
		})
	}
	return images, nil
}
