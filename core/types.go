package core

import (
	"hash/crc32"
	"strconv"
)

// Size budgets enforced by the image subsystem (spec §3 invariants, §4.3
// policy A).
const (
	SingleImageBudgetBytes = 50 * 1024 * 1024  // 50 MiB
	TotalImageBudgetBytes  = 100 * 1024 * 1024 // 100 MiB

	smallImageThresholdBytes = 1024
	fingerprintSampleBytes   = 512
)

// OCRBackend selects the document-level OCR engine. The zero value passes
// ExtractionConfig.Validate and resolves to the same engine as
// OCRBackendNone (see ocr.ResolveEngine).
type OCRBackend string

const (
	OCRBackendTesseract OCRBackend = "tesseract"
	OCRBackendEasyOCR   OCRBackend = "easyocr"
	OCRBackendPaddleOCR OCRBackend = "paddleocr"
	OCRBackendNone      OCRBackend = "none"
)

// ImageFormat identifies the encoding of an extracted or embedded image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "png"
	ImageFormatJPEG ImageFormat = "jpg"
	ImageFormatGIF  ImageFormat = "gif"
	ImageFormatBMP  ImageFormat = "bmp"
	ImageFormatTIFF ImageFormat = "tiff"
	ImageFormatWebP ImageFormat = "webp"
	ImageFormatSVG  ImageFormat = "svg"
)

// Dimensions is a width/height pair in pixels.
type Dimensions struct {
	Width  uint32
	Height uint32
}

// IsZero reports whether both dimensions are unset.
func (d Dimensions) IsZero() bool { return d.Width == 0 && d.Height == 0 }

// FitsWithin reports whether d is within [min, max] inclusive on both axes.
// Zero min/max bounds are treated as "no constraint" on that axis.
func (d Dimensions) FitsWithin(min, max Dimensions) bool {
	if min.Width > 0 && d.Width < min.Width {
		return false
	}
	if min.Height > 0 && d.Height < min.Height {
		return false
	}
	if max.Width > 0 && d.Width > max.Width {
		return false
	}
	if max.Height > 0 && d.Height > max.Height {
		return false
	}
	return true
}

// PDFPassword carries either a single password or an ordered list of
// passwords to try in sequence (spec §3, §4.2.1).
type PDFPassword struct {
	list []string
}

// NewPDFPassword wraps a single password.
func NewPDFPassword(password string) PDFPassword {
	if password == "" {
		return PDFPassword{}
	}
	return PDFPassword{list: []string{password}}
}

// NewPDFPasswordList wraps an ordered list of candidate passwords.
func NewPDFPasswordList(passwords []string) PDFPassword {
	return PDFPassword{list: append([]string(nil), passwords...)}
}

// Passwords returns the ordered list of passwords to attempt. An unset
// PDFPassword yields a single empty-string attempt, matching the original's
// fallback-to-no-password behavior.
func (p PDFPassword) Passwords() []string {
	if len(p.list) == 0 {
		return []string{""}
	}
	return p.list
}

// TesseractConfig exposes the backend-specific parameters for the Tesseract
// OCR engine (spec §4.4).
type TesseractConfig struct {
	Language string        `validate:"omitempty"`
	PSM      int           `validate:"omitempty,min=0,max=13"`
	OEM      int           `validate:"omitempty,min=0,max=3"`
	Timeout  Seconds       `validate:"omitempty,min=0"`
	Flags    map[string]bool
}

// Seconds is a plain float64 duration in seconds, used where the spec gives
// timeouts in fractional seconds (e.g. 0.5s retry backoff multipliers).
type Seconds float64

// EasyOCRConfig exposes the backend-specific parameters for the optional
// EasyOCR engine.
type EasyOCRConfig struct {
	Languages []string
	GPU       bool
}

// PaddleOCRConfig exposes the backend-specific parameters for the optional
// PaddleOCR engine.
type PaddleOCRConfig struct {
	Language    string
	UseAngleCls bool
}

// OCRConfig is the tagged variant carrying backend-specific OCR parameters
// (spec §3). At most one of the pointer fields should be set; which one is
// consulted is determined by ExtractionConfig.OCRBackend.
type OCRConfig struct {
	Tesseract *TesseractConfig
	EasyOCR   *EasyOCRConfig
	PaddleOCR *PaddleOCRConfig
}

// HTMLToMarkdownConfig configures the HTML extractor's delegate converter.
type HTMLToMarkdownConfig struct {
	HeadingStyle        string // "atx" | "setext"
	BulletListMarker    string
	StrongDelimiter     string
	PreserveInlineImages bool
}

// LanguageDetectionConfig configures optional language detection over
// extracted content.
type LanguageDetectionConfig struct {
	Enabled        bool
	MinConfidence  float64
	DetectMultiple bool
}

// JSONConfig configures the structured-data extractor's JSON/YAML/TOML
// handling (spec §4.2.7).
type JSONConfig struct {
	FlattenNestedObjects    bool
	IncludeTypeInfo         bool
	ExtractSchema           bool
	MaxDepth                int
	ArrayItemLimit          int
	CustomTextFieldPatterns []string
}

// ExtractionConfig is the immutable configuration passed to every extractor
// (spec §3). Zero value is a usable "do the minimum" configuration.
type ExtractionConfig struct {
	ForceOCR   bool
	OCRBackend OCRBackend `validate:"omitempty,oneof=tesseract easyocr paddleocr none"`
	OCRConfig  OCRConfig

	ExtractTables      bool
	ExtractImages      bool
	OCRExtractedImages bool

	ImageOCRBackend       *OCRBackend
	ImageOCRFormats       map[ImageFormat]bool
	ImageOCRMinDimensions Dimensions
	ImageOCRMaxDimensions Dimensions

	DeduplicateImages       bool
	EnableQualityProcessing bool

	UseCache    bool
	PDFPassword PDFPassword

	ChunkContent bool
	MaxChars     int `validate:"omitempty,min=1"`
	MaxOverlap   int `validate:"omitempty,min=0"`

	HTMLToMarkdownConfig    HTMLToMarkdownConfig
	LanguageDetectionConfig LanguageDetectionConfig
	JSONConfig              JSONConfig
}

// EffectiveImageOCRBackend returns the backend used for embedded-image OCR:
// the override if set, else the document OCR backend.
func (c ExtractionConfig) EffectiveImageOCRBackend() OCRBackend {
	if c.ImageOCRBackend != nil {
		return *c.ImageOCRBackend
	}
	return c.OCRBackend
}

// Table is a detected table, either from a format's native table model
// (spreadsheet, PPTX) or a table-extraction library (PDF, spec §4.2.1).
type Table struct {
	Rows       [][]string
	Markdown   string
	PageNumber *int
}

// ExtractedImage is a content-addressed image emitted by an extractor
// (spec §3). Equality and hashing are defined by Fingerprint, not identity.
type ExtractedImage struct {
	Data        []byte
	Format      ImageFormat
	Filename    *string
	PageNumber  *int
	Dimensions  *Dimensions
	Description *string
}

// Fingerprint implements the weak content fingerprint from spec §4.3 policy
// B: CRC32 of the whole payload for small images, CRC32 of a
// length+head+tail+format sample for large ones. It is intentionally cheap
// and non-cryptographic; false positives are acceptable here because the
// consequence is dropping a visually identical duplicate, not corrupting
// data.
func (img ExtractedImage) Fingerprint() uint32 {
	data := img.Data
	if len(data) < smallImageThresholdBytes {
		return crc32.ChecksumIEEE(data)
	}
	sample := make([]byte, 0, 32+2*fingerprintSampleBytes+len(img.Format))
	sample = strconv.AppendInt(sample, int64(len(data)), 10)
	sample = append(sample, data[:fingerprintSampleBytes]...)
	sample = append(sample, data[len(data)-fingerprintSampleBytes:]...)
	sample = append(sample, []byte(img.Format)...)
	return crc32.ChecksumIEEE(sample)
}

// ImageOCRResult is the per-image outcome of embedded-image OCR dispatch
// (spec §3, §4.3 policy C). If SkippedReason is set, OCRResult.Content is
// empty and no OCR engine ran for this image.
type ImageOCRResult struct {
	Image           ExtractedImage
	OCRResult       ExtractionResult
	ConfidenceScore *float32
	ProcessingTime  *float64
	SkippedReason   *string
}

// ExtractionResult is the universal return value of every extractor (spec
// §3). It is mutated in place during the extraction pipeline and should be
// treated as frozen once returned to the caller.
type ExtractionResult struct {
	Content           string
	MimeType          string
	Metadata          Metadata
	Tables            []Table
	Images            []ExtractedImage
	ImageOCRResults   []ImageOCRResult
	Chunks            []string
	DetectedLanguages []string
	DocumentType      *string
}

// TotalImageBytes sums the byte size of every image currently on the
// result, used by the image subsystem's budget enforcement.
func (r *ExtractionResult) TotalImageBytes() int {
	total := 0
	for _, img := range r.Images {
		total += len(img.Data)
	}
	return total
}
