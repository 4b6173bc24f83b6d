package html

import (
	"testing"

	"github.com/wudi/kreuzberg-go/core"
)

func TestExtractMetadataTitleAndMeta(t *testing.T) {
	doc := parseHTML(t, `<html><head>
		<title>My Document</title>
		<meta name="author" content="Ada Lovelace">
		<meta name="description" content="A test document">
		<meta name="keywords" content="alpha, beta, gamma">
	</head><body></body></html>`)

	meta := extractMetadata(doc)

	if title, ok := meta.Title(); !ok || title != "My Document" {
		t.Errorf("expected title %q, got %q (ok=%v)", "My Document", title, ok)
	}
	authors, _ := meta.Authors()
	if len(authors) != 1 || authors[0] != "Ada Lovelace" {
		t.Errorf("expected authors [Ada Lovelace], got %v", authors)
	}
	if subject, ok := meta.Get(core.MetaSubject); !ok || subject != "A test document" {
		t.Errorf("expected subject, got %v (ok=%v)", subject, ok)
	}
}
