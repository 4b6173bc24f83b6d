package pptx

import (
	"strings"
	"testing"

	"github.com/wudi/kreuzberg-go/core"
)

func TestSupportedMimeTypes(t *testing.T) {
	ext := New(nil)
	mimes := ext.SupportedMimeTypes()
	if len(mimes) != 1 || mimes[0] != "application/vnd.openxmlformats-officedocument.presentationml.presentation" {
		t.Fatalf("unexpected supported mime types: %v", mimes)
	}
}

func TestExtractBytesSyncRendersSlide(t *testing.T) {
	ext := New(nil)
	data := buildTestPPTX(t)

	result, err := ext.ExtractBytesSync(data,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	content := result.Content
	if !strings.Contains(content, "<!-- Slide number: 1 -->") {
		t.Fatalf("expected slide delimiter, got %q", content)
	}
	if !strings.Contains(content, "# Quarterly Results") {
		t.Fatalf("expected title prefixed with '# ', got %q", content)
	}
	if !strings.Contains(content, "![Revenue chart](Chart.png.jpg)") {
		t.Fatalf("expected picture markdown, got %q", content)
	}
	if !strings.Contains(content, "<th>Quarter</th>") || !strings.Contains(content, "<td>Q1</td>") {
		t.Fatalf("expected table HTML with th header row, got %q", content)
	}
	if !strings.Contains(content, "### Notes:") || !strings.Contains(content, "Remember to mention Q2 guidance.") {
		t.Fatalf("expected notes section, got %q", content)
	}
}

func TestExtractBytesSyncMetadata(t *testing.T) {
	ext := New(nil)
	data := buildTestPPTX(t)

	result, err := ext.ExtractBytesSync(data,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		core.ExtractionConfig{})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}

	title, ok := result.Metadata.Title()
	if !ok || title != "Quarterly Review" {
		t.Fatalf("expected title metadata, got %q (ok=%v)", title, ok)
	}
	authors, ok := result.Metadata.Authors()
	if !ok || len(authors) != 1 || authors[0] != "Ada Lovelace" {
		t.Fatalf("expected single author, got %v (ok=%v)", authors, ok)
	}
	fonts, ok := result.Metadata.Get(core.MetaFonts)
	if !ok {
		t.Fatal("expected fonts metadata")
	}
	fontList, ok := fonts.([]string)
	if !ok || len(fontList) != 1 || fontList[0] != "Calibri" {
		t.Fatalf("expected [Calibri] fonts, got %v", fonts)
	}
}

func TestExtractBytesSyncCollectsImages(t *testing.T) {
	ext := New(nil)
	data := buildTestPPTX(t)

	result, err := ext.ExtractBytesSync(data,
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		core.ExtractionConfig{ExtractImages: true})
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if len(result.Images) != 1 {
		t.Fatalf("expected one collected image, got %d", len(result.Images))
	}
	img := result.Images[0]
	if img.Filename == nil || *img.Filename != "Chart.png" {
		t.Fatalf("expected Chart.png filename, got %v", img.Filename)
	}
	if img.PageNumber == nil || *img.PageNumber != 0 {
		t.Fatalf("expected page number 0, got %v", img.PageNumber)
	}
}

func TestExtractBytesSyncInvalidArchiveErrors(t *testing.T) {
	ext := New(nil)
	_, err := ext.ExtractBytesSync([]byte("not a zip"),
		"application/vnd.openxmlformats-officedocument.presentationml.presentation",
		core.ExtractionConfig{})
	if err == nil {
		t.Fatal("expected an error for invalid archive")
	}
}
