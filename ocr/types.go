package ocr

import "context"

// Region describes a rectangular area in pixel coordinates with the origin
// in the upper-left corner of the image.
type Region struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// IsEmpty reports whether the region has non-positive dimensions.
func (r Region) IsEmpty() bool { return r.Width <= 0 || r.Height <= 0 }

// Input encapsulates a single image submitted for OCR (spec §4.4).
type Input struct {
	// ID is an optional caller-provided identifier echoed back on Result,
	// used to correlate batch results with their submission.
	ID string
	// Image is the encoded image payload, used when the input has not
	// already been spilled to disk.
	Image []byte
	// Path is an existing on-disk image file. When set, it takes
	// precedence over Image, letting a caller whose image is already on
	// disk avoid writing it out again.
	Path string
	// Format names the image encoding ("png", "jpg", "tiff", ...).
	Format string
	// PageIndex links the input back to its zero-based source page.
	PageIndex int
	// DPI carries the effective dots-per-inch of the image; zero means
	// unknown.
	DPI int
	// PSM is the Tesseract page segmentation mode. Zero means "use the
	// engine's default" (PSM 3, fully automatic).
	PSM int
	// Languages is an ordered list of Tesseract-style codes (e.g. "eng",
	// or "eng+deu" for multi-language recognition).
	Languages []string
	// Region names a subsection of the image; nil means the full image.
	// The tesseract and googlevision engines in this module do not read
	// it and always recognize the full image.
	Region *Region
	// ConfigFlags passes boolean engine-specific knobs through without
	// hard-coding them into this API (Tesseract "-c key=value" flags,
	// encoded 1/0).
	ConfigFlags map[string]bool
}

// TextWord is a single recognized token.
type TextWord struct {
	Text       string
	Bounds     Region
	Confidence float64
}

// TextLine groups words sharing a baseline.
type TextLine struct {
	Text       string
	Bounds     Region
	Words      []TextWord
	Confidence float64
}

// TextBlock aggregates lines into a logical block. Backends that only
// produce linear text (the Tesseract subprocess driver) leave Blocks nil.
type TextBlock struct {
	Text       string
	Bounds     Region
	Lines      []TextLine
	Confidence float64
}

// Result is the OCR output for a single input image.
type Result struct {
	// InputID mirrors the Input.ID that produced this result.
	InputID string
	// PlainText is the linearized recognized text.
	PlainText string
	// Blocks carries structured layout with positional metadata, when the
	// backend provides it.
	Blocks []TextBlock
	// Language is the dominant recognized language, if known.
	Language string
}

// Engine is the minimal OCR provider contract: one image in, one result
// out.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, input Input) (Result, error)
}

// BatchEngine is implemented by providers that can process multiple images
// in one call, amortizing process or round-trip startup cost.
type BatchEngine interface {
	Engine
	RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error)
}

// Initializer is optionally implemented by backends holding process-wide
// resources (client connections, loaded models) that require explicit
// setup and teardown before/after use (spec §4.5).
type Initializer interface {
	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// JobState models the lifecycle of an asynchronous OCR request.
type JobState string

const (
	JobStatePending   JobState = "pending"
	JobStateRunning   JobState = "running"
	JobStateSucceeded JobState = "succeeded"
	JobStateFailed    JobState = "failed"
	JobStateCanceled  JobState = "canceled"
)

// JobStatus reports incremental progress for a long-running job.
type JobStatus struct {
	State    JobState
	Message  string
	Progress float64
}

// Job is an asynchronous OCR submission that can be polled or canceled.
type Job interface {
	ID() string
	Status(ctx context.Context) (JobStatus, error)
	Results(ctx context.Context) ([]Result, error)
	Cancel(ctx context.Context) error
}

// AsyncEngine submits OCR requests that may complete later (remote
// providers that process batches asynchronously).
type AsyncEngine interface {
	Name() string
	Start(ctx context.Context, inputs []Input) (Job, error)
}
