package core

import (
	"context"
	"testing"
)

type stubExtractor struct {
	mimes []string
	tag   string
}

func (s stubExtractor) SupportedMimeTypes() []string { return s.mimes }

func (s stubExtractor) ExtractBytesSync(data []byte, mimeType string, cfg ExtractionConfig) (ExtractionResult, error) {
	return ExtractionResult{Content: s.tag}, nil
}
func (s stubExtractor) ExtractPathSync(path string, mimeType string, cfg ExtractionConfig) (ExtractionResult, error) {
	return ExtractionResult{Content: s.tag}, nil
}
func (s stubExtractor) ExtractBytesAsync(ctx context.Context, data []byte, mimeType string, cfg ExtractionConfig) (ExtractionResult, error) {
	return AsyncFromSync(ctx, func() (ExtractionResult, error) { return s.ExtractBytesSync(data, mimeType, cfg) })
}
func (s stubExtractor) ExtractPathAsync(ctx context.Context, path string, mimeType string, cfg ExtractionConfig) (ExtractionResult, error) {
	return AsyncFromSync(ctx, func() (ExtractionResult, error) { return s.ExtractPathSync(path, mimeType, cfg) })
}

func TestRegistryPrefixMatch(t *testing.T) {
	r := NewRegistry(func() Extractor {
		return stubExtractor{mimes: []string{"application/vnd."}, tag: "office"}
	})
	ex, ok := r.Get("application/vnd.openxmlformats-officedocument.wordprocessingml.document", nil)
	if !ok {
		t.Fatal("expected prefix match to succeed")
	}
	result, _ := ex.ExtractBytesSync(nil, "", ExtractionConfig{})
	if result.Content != "office" {
		t.Fatalf("got extractor tagged %q", result.Content)
	}
}

func TestRegistryNoMatchReturnsFalseNotError(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Get("application/zzz-unknown", nil)
	if ok {
		t.Fatal("expected no match")
	}
}

func TestRegistryRegisteredBeatsDefault(t *testing.T) {
	r := NewRegistry(func() Extractor { return stubExtractor{mimes: []string{"text/plain"}, tag: "default"} })
	r.Add(func() Extractor { return stubExtractor{mimes: []string{"text/plain"}, tag: "user"} })

	ex, ok := r.Get("text/plain", nil)
	if !ok {
		t.Fatal("expected a match")
	}
	result, _ := ex.ExtractBytesSync(nil, "", ExtractionConfig{})
	if result.Content != "user" {
		t.Fatalf("got %q, want user extractor to win", result.Content)
	}
}

func TestRegistryAddInvalidatesCache(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get("text/plain", nil); ok {
		t.Fatal("expected no match before Add")
	}
	r.Add(func() Extractor { return stubExtractor{mimes: []string{"text/plain"}, tag: "late"} })
	ex, ok := r.Get("text/plain", nil)
	if !ok {
		t.Fatal("expected a match after Add invalidated the cache")
	}
	result, _ := ex.ExtractBytesSync(nil, "", ExtractionConfig{})
	if result.Content != "late" {
		t.Fatalf("got %q", result.Content)
	}
}

func TestRegistryRemoveByPredicate(t *testing.T) {
	r := NewRegistry()
	r.Add(func() Extractor { return stubExtractor{mimes: []string{"text/plain"}, tag: "removable"} })
	r.Remove(func(ex Extractor) bool {
		result, _ := ex.ExtractBytesSync(nil, "", ExtractionConfig{})
		return result.Content == "removable"
	})
	if _, ok := r.Get("text/plain", nil); ok {
		t.Fatal("expected extractor to have been removed")
	}
}

func TestRegistryRemoveAbsentIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Remove(func(Extractor) bool { return true })
}
