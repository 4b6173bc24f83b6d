package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"runtime"
	"strings"
	"time"
)

// ErrorKind classifies a KreuzbergError into one of the four taxonomies of
// spec §7.
type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "validation"
	ErrorKindMissingDependency ErrorKind = "missing_dependency"
	ErrorKindParsing           ErrorKind = "parsing"
	ErrorKindOCR               ErrorKind = "ocr"
)

// FileInfo is a best-effort description of the file involved in an error,
// attached to ErrorContext when the failing operation has one.
type FileInfo struct {
	Path   string
	Exists bool
	Size   int64
}

// NewFileInfo stats path and fills in what it can; stat failures are not
// themselves reported, since this is diagnostic best-effort metadata.
func NewFileInfo(path string) FileInfo {
	info := FileInfo{Path: path}
	if stat, err := os.Stat(path); err == nil {
		info.Exists = true
		info.Size = stat.Size()
	}
	return info
}

// SystemSnapshot is a best-effort process snapshot captured at error time,
// useful for diagnosing resource-exhaustion failures after the fact. It is
// intentionally shallow: no cgo, no platform-specific syscalls.
type SystemSnapshot struct {
	GoroutineCount int
	NumCPU         int
	Platform       string
	HeapAllocBytes uint64
}

// CaptureSystemSnapshot reads runtime.MemStats and goroutine/CPU counts.
func CaptureSystemSnapshot() SystemSnapshot {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return SystemSnapshot{
		GoroutineCount: runtime.NumGoroutine(),
		NumCPU:         runtime.NumCPU(),
		Platform:       runtime.GOOS + "/" + runtime.GOARCH,
		HeapAllocBytes: mem.HeapAlloc,
	}
}

// ErrorContext carries the diagnostic envelope attached to every
// KreuzbergError (spec §7): when it happened, what operation was running,
// which file (if any) was involved, the wrapped error's description, a
// best-effort system snapshot, and an open bag of per-call extras.
type ErrorContext struct {
	Timestamp time.Time
	Operation string
	File      *FileInfo
	Cause     error
	System    *SystemSnapshot
	Extra     map[string]any
}

// ContextOption configures a new ErrorContext.
type ContextOption func(*ErrorContext)

// WithFile attaches file metadata to the context.
func WithFile(path string) ContextOption {
	return func(c *ErrorContext) {
		info := NewFileInfo(path)
		c.File = &info
	}
}

// WithCause attaches the underlying error being wrapped.
func WithCause(err error) ContextOption {
	return func(c *ErrorContext) { c.Cause = err }
}

// WithSystemSnapshot attaches a best-effort process snapshot.
func WithSystemSnapshot() ContextOption {
	return func(c *ErrorContext) {
		snap := CaptureSystemSnapshot()
		c.System = &snap
	}
}

// WithExtra records a single extension field.
func WithExtra(key string, value any) ContextOption {
	return func(c *ErrorContext) {
		if c.Extra == nil {
			c.Extra = make(map[string]any)
		}
		c.Extra[key] = value
	}
}

// NewErrorContext builds an ErrorContext for operation, stamped with the
// current time and optionally decorated by opts.
func NewErrorContext(operation string, opts ...ContextOption) ErrorContext {
	ctx := ErrorContext{Timestamp: time.Now(), Operation: operation}
	for _, opt := range opts {
		opt(&ctx)
	}
	return ctx
}

// KreuzbergError is implemented by every error this package raises.
type KreuzbergError interface {
	error
	Kind() ErrorKind
	Context() ErrorContext
	Unwrap() error
}

type baseError struct {
	kind    ErrorKind
	message string
	ctx     ErrorContext
}

func (e *baseError) Error() string {
	if e.ctx.Operation == "" {
		return e.message
	}
	return fmt.Sprintf("%s: %s", e.ctx.Operation, e.message)
}

func (e *baseError) Kind() ErrorKind      { return e.kind }
func (e *baseError) Context() ErrorContext { return e.ctx }
func (e *baseError) Unwrap() error         { return e.ctx.Cause }

// ValidationError reports malformed or unsupported configuration or input
// (spec §7): unrecognized OCR backend, out-of-range dimensions, and so on.
type ValidationError struct{ *baseError }

// NewValidationError constructs a ValidationError.
func NewValidationError(message string, ctx ErrorContext) *ValidationError {
	return &ValidationError{&baseError{kind: ErrorKindValidation, message: message, ctx: ctx}}
}

// MissingDependencyError reports an external tool or library required for
// an operation that is not present on the host (spec §7): no `pandoc`
// binary, no `tesseract` binary, an unregistered optional OCR backend.
type MissingDependencyError struct{ *baseError }

// NewMissingDependencyError constructs a MissingDependencyError.
func NewMissingDependencyError(message string, ctx ErrorContext) *MissingDependencyError {
	return &MissingDependencyError{&baseError{kind: ErrorKindMissingDependency, message: message, ctx: ctx}}
}

// ParsingError reports a failure to interpret a document's bytes according
// to its declared format (spec §7): malformed PDF xref, invalid ZIP
// central directory, unparsable JSON.
type ParsingError struct{ *baseError }

// NewParsingError constructs a ParsingError.
func NewParsingError(message string, ctx ErrorContext) *ParsingError {
	return &ParsingError{&baseError{kind: ErrorKindParsing, message: message, ctx: ctx}}
}

// NewAggregateParsingError rolls up multiple per-unit parsing failures
// (e.g. one per spreadsheet sheet) into a single ParsingError, recording
// the individual errors under ctx.Extra["errors"] rather than discarding
// them.
func NewAggregateParsingError(operation string, errs []error) *ParsingError {
	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	ctx := NewErrorContext(operation, WithExtra("errors", errs))
	return NewParsingError(fmt.Sprintf("%d error(s): %s", len(errs), strings.Join(msgs, "; ")), ctx)
}

// OCRError reports a failure of the OCR subsystem itself (spec §7):
// subprocess launch failure, subprocess timeout, unparsable engine output.
type OCRError struct{ *baseError }

// NewOCRError constructs an OCRError.
func NewOCRError(message string, ctx ErrorContext) *OCRError {
	return &OCRError{&baseError{kind: ErrorKindOCR, message: message, ctx: ctx}}
}

var transientPatterns = regexp.MustCompile(
	`(?i)(temporarily unavailable|resource temporarily|try again|too many open files|` +
		`cannot allocate memory|connection reset|connection refused|broken pipe|` +
		`i/o timeout|deadline exceeded|locked|in use by another process)`,
)

// IsTransient implements the spec §7 transient-error classification used to
// decide whether a failed operation (a subprocess launch, a file read
// racing a concurrent writer) is worth retrying. It recognizes wrapped
// context deadlines, common OS-level transient conditions, and a pattern
// set over the error text for errors that don't carry a typed sentinel.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && os.IsTimeout(pathErr.Err) {
		return true
	}
	if os.IsTimeout(err) {
		return true
	}
	return transientPatterns.MatchString(err.Error())
}
