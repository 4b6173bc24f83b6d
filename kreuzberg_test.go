package kreuzberg

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wudi/kreuzberg-go/core"
)

func TestExtractBytesDispatchesStructuredData(t *testing.T) {
	data := []byte(`{"title": "Report", "count": 3}`)
	result, err := ExtractBytes(data, "application/json", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}
	if !strings.Contains(result.Content, "title: Report") {
		t.Fatalf("expected structured-data rendering, got %q", result.Content)
	}
}

func TestExtractBytesUnknownMimeReturnsValidationError(t *testing.T) {
	_, err := ExtractBytes([]byte("x"), "application/x-does-not-exist", core.ExtractionConfig{})
	if err == nil {
		t.Fatal("expected a validation error for an unregistered mime type")
	}
	if _, ok := err.(*core.ValidationError); !ok {
		t.Fatalf("expected *core.ValidationError, got %T", err)
	}
}

func TestExtractFileInfersMimeFromExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.json")
	if err := os.WriteFile(path, []byte(`{"title": "From File"}`), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	result, err := ExtractFile(path, "", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("ExtractFile() error = %v", err)
	}
	if !strings.Contains(result.Content, "title: From File") {
		t.Fatalf("expected structured-data rendering, got %q", result.Content)
	}
}

func TestExtractFileUnrecognizedExtensionErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.nope")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	_, err := ExtractFile(path, "", core.ExtractionConfig{})
	if err == nil {
		t.Fatal("expected a validation error for an unrecognized extension")
	}
}

func TestBatchExtractBytesPreservesOrderAndPartialFailure(t *testing.T) {
	inputs := []BatchInput{
		{Data: []byte(`{"title": "A"}`), MimeType: "application/json"},
		{Data: []byte("not json"), MimeType: "application/x-does-not-exist"},
		{Data: []byte(`{"title": "C"}`), MimeType: "application/json"},
	}
	batch := BatchExtractBytes(inputs, core.ExtractionConfig{})

	if len(batch.Successful) != 2 || len(batch.Failed) != 1 {
		t.Fatalf("expected 2 successes and 1 failure, got %d/%d", len(batch.Successful), len(batch.Failed))
	}
	if batch.Failed[0].Index != 1 {
		t.Fatalf("expected the failure at index 1, got %d", batch.Failed[0].Index)
	}

	ordered := batch.Ordered()
	if len(ordered) != 3 || ordered[1] != nil {
		t.Fatalf("expected ordered[1] to be nil for the failed input")
	}
	if ordered[0] == nil || !strings.Contains(ordered[0].Content, "title: A") {
		t.Fatalf("expected ordered[0] to hold the first success, got %v", ordered[0])
	}
	if ordered[2] == nil || !strings.Contains(ordered[2].Content, "title: C") {
		t.Fatalf("expected ordered[2] to hold the third success, got %v", ordered[2])
	}

	if rate := batch.SuccessRate(); rate < 0.66 || rate > 0.67 {
		t.Fatalf("expected a 2/3 success rate, got %v", rate)
	}
}

func TestAddExtractorTakesPriorityOverDefaults(t *testing.T) {
	client := NewClient(nil)
	client.AddExtractor(func() core.Extractor { return stubExtractor{} })

	result, err := client.ExtractBytes([]byte("ignored"), "application/json", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("ExtractBytes() error = %v", err)
	}
	if result.Content != "stubbed" {
		t.Fatalf("expected the registered stub to take priority, got %q", result.Content)
	}
}

type stubExtractor struct{}

func (stubExtractor) SupportedMimeTypes() []string { return []string{"application/json"} }
func (stubExtractor) ExtractBytesSync(data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.ExtractionResult{Content: "stubbed"}, nil
}
func (stubExtractor) ExtractPathSync(path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.ExtractionResult{}, nil
}
func (stubExtractor) ExtractBytesAsync(ctx context.Context, data []byte, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.ExtractionResult{}, nil
}
func (stubExtractor) ExtractPathAsync(ctx context.Context, path string, mimeType string, cfg core.ExtractionConfig) (core.ExtractionResult, error) {
	return core.ExtractionResult{}, nil
}
