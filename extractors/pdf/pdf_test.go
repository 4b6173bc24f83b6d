package pdf

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/observability"
)

// buildTextPDF constructs a minimal single-page, classic-xref PDF whose
// content stream shows a literal string with Tj. No font resource is
// attached, so the text layer decodes the literal bytes as-is.
func buildTextPDF(text string) []byte {
	content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)

	buf := &strings.Builder{}
	offsets := make([]int, 0, 4)
	write := func(s string) { buf.WriteString(s) }

	write("%PDF-1.7\n")

	offsets = append(offsets, buf.Len())
	write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets = append(offsets, buf.Len())
	write("2 0 obj\n<< /Type /Pages /Kids [3 0 R] /Count 1 >>\nendobj\n")

	offsets = append(offsets, buf.Len())
	write("3 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>\nendobj\n")

	offsets = append(offsets, buf.Len())
	write(fmt.Sprintf("4 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content))

	xrefOffset := buf.Len()
	write("xref\n0 5\n")
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write("trailer\n<< /Size 5 /Root 1 0 R >>\n")
	write("startxref\n")
	write(fmt.Sprintf("%d\n%%%%EOF\n", xrefOffset))

	return []byte(buf.String())
}

// buildZeroPagePDF constructs a minimal valid PDF whose page tree has no pages.
func buildZeroPagePDF() []byte {
	buf := &strings.Builder{}
	offsets := make([]int, 0, 2)
	write := func(s string) { buf.WriteString(s) }

	write("%PDF-1.7\n")

	offsets = append(offsets, buf.Len())
	write("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	offsets = append(offsets, buf.Len())
	write("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")

	xrefOffset := buf.Len()
	write("xref\n0 3\n")
	write("0000000000 65535 f \n")
	for _, off := range offsets {
		write(fmt.Sprintf("%010d 00000 n \n", off))
	}
	write("trailer\n<< /Size 3 /Root 1 0 R >>\n")
	write("startxref\n")
	write(fmt.Sprintf("%d\n%%%%EOF\n", xrefOffset))

	return []byte(buf.String())
}

func writeTempPDF(t *testing.T, data []byte) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "kreuzberg-test-*.pdf")
	if err != nil {
		t.Fatalf("create temp pdf: %v", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		t.Fatalf("write temp pdf: %v", err)
	}
	return f.Name()
}

func TestExtractPathSyncSearchableText(t *testing.T) {
	path := writeTempPDF(t, buildTextPDF("Hello World"))
	ext := New(observability.NopLogger{}).(*Extractor)

	result, err := ext.ExtractPathSync(path, "application/pdf", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(result.Content, "Hello World") {
		t.Fatalf("expected content to contain %q, got %q", "Hello World", result.Content)
	}
	if result.MimeType != "text/plain" {
		t.Fatalf("expected text/plain mime type, got %q", result.MimeType)
	}
}

func TestExtractBytesSyncSearchableText(t *testing.T) {
	data := buildTextPDF("From Bytes")
	ext := New(observability.NopLogger{}).(*Extractor)

	result, err := ext.ExtractBytesSync(data, "application/pdf", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(result.Content, "From Bytes") {
		t.Fatalf("expected content to contain %q, got %q", "From Bytes", result.Content)
	}
}

func TestExtractPathSyncZeroPages(t *testing.T) {
	path := writeTempPDF(t, buildZeroPagePDF())
	ext := New(observability.NopLogger{}).(*Extractor)

	result, err := ext.ExtractPathSync(path, "application/pdf", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("expected no error for a zero-page pdf, got %v", err)
	}
	if result.Content != "" {
		t.Fatalf("expected empty content for a zero-page pdf, got %q", result.Content)
	}
}

func TestSupportedMimeTypes(t *testing.T) {
	ext := New(nil)
	types := ext.SupportedMimeTypes()
	if len(types) != 1 || types[0] != "application/pdf" {
		t.Fatalf("unexpected mime types: %v", types)
	}
}

func TestExtractPathAsyncMatchesSync(t *testing.T) {
	path := writeTempPDF(t, buildTextPDF("Async Path"))
	ext := New(observability.NopLogger{}).(*Extractor)

	result, err := ext.ExtractPathAsync(context.Background(), path, "application/pdf", core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if !strings.Contains(result.Content, "Async Path") {
		t.Fatalf("expected content to contain %q, got %q", "Async Path", result.Content)
	}
}
