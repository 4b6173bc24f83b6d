package pandoc

import (
	"testing"

	"github.com/wudi/kreuzberg-go/core"
)

const sampleAST = `{
  "pandoc-api-version": [1,23],
  "meta": {
    "title": {"t": "MetaInlines", "c": [{"t":"Str","c":"Quarterly"},{"t":"Space"},{"t":"Str","c":"Report"}]},
    "author": {"t": "MetaList", "c": [
      {"t":"MetaInlines","c":[{"t":"Str","c":"Ada"},{"t":"Space"},{"t":"Str","c":"Lovelace"}]}
    ]},
    "abstract": {"t": "MetaBlocks", "c": [
      {"t":"Para","c":[{"t":"Str","c":"Summary"},{"t":"Space"},{"t":"Str","c":"text."}]}
    ]},
    "keywords": {"t": "MetaString", "c": "finance, quarterly"}
  },
  "blocks": [
    {"t":"Para","c":[
      {"t":"Str","c":"See"},
      {"t":"Space"},
      {"t":"Cite","c":[[{"citationId":"smith2020"}],[{"t":"Str","c":"[Smith]"}]]}
    ]}
  ]
}`

func TestParseDocument(t *testing.T) {
	doc, err := parseDocument([]byte(sampleAST))
	if err != nil {
		t.Fatalf("parseDocument() error = %v", err)
	}
	if len(doc.Meta) != 4 {
		t.Fatalf("expected 4 meta keys, got %d", len(doc.Meta))
	}
	if len(doc.Blocks) != 1 {
		t.Fatalf("expected 1 block, got %d", len(doc.Blocks))
	}
}

func TestExtractMetadataRemapsKeys(t *testing.T) {
	doc, err := parseDocument([]byte(sampleAST))
	if err != nil {
		t.Fatalf("parseDocument() error = %v", err)
	}
	metadata := extractMetadata(doc)

	title, ok := metadata.Title()
	if !ok || title != "Quarterly Report" {
		t.Fatalf("expected title 'Quarterly Report', got %q (ok=%v)", title, ok)
	}
	authors, ok := metadata.Authors()
	if !ok || len(authors) != 1 || authors[0] != "Ada Lovelace" {
		t.Fatalf("expected single author 'Ada Lovelace', got %v", authors)
	}
	summary, ok := metadata.Get(core.MetaSummary)
	if !ok || summary != "Summary text." {
		t.Fatalf("expected summary from abstract, got %v", summary)
	}
	keywords, ok := metadata.Get(core.MetaKeywords)
	if !ok {
		t.Fatal("expected keywords metadata")
	}
	list, ok := keywords.([]string)
	if !ok || len(list) != 2 || list[0] != "finance" || list[1] != "quarterly" {
		t.Fatalf("expected split keyword list, got %v", keywords)
	}
}

func TestCollectCitations(t *testing.T) {
	doc, err := parseDocument([]byte(sampleAST))
	if err != nil {
		t.Fatalf("parseDocument() error = %v", err)
	}
	citations := collectCitations(doc)
	if len(citations) != 1 || citations[0] != "smith2020" {
		t.Fatalf("expected [smith2020], got %v", citations)
	}
}

func TestFlattenInlinesHandlesNesting(t *testing.T) {
	inlines := []node{
		{Tag: "Str", Content: []byte(`"Hello"`)},
		{Tag: "Space"},
		{Tag: "Strong", Content: []byte(`[{"t":"Str","c":"world"}]`)},
	}
	got := flattenInlines(inlines)
	if got != "Hello world" {
		t.Fatalf("flattenInlines() = %q, want %q", got, "Hello world")
	}
}

func TestToStringListVariants(t *testing.T) {
	if got := toStringList("a; b ;c"); len(got) != 3 || got[0] != "a" || got[1] != "b" || got[2] != "c" {
		t.Fatalf("toStringList(string) = %v", got)
	}
	if got := toStringList([]any{"x", "y"}); len(got) != 2 {
		t.Fatalf("toStringList([]any) = %v", got)
	}
	if got := toStringList([]string{"z"}); len(got) != 1 {
		t.Fatalf("toStringList([]string) = %v", got)
	}
}
