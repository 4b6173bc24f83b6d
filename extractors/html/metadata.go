package html

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/kreuzberg-go/core"
)

// extractMetadata pulls the document title and recognized <meta name="...">
// tags, the same well-known keys an HTML-to-Markdown converter's metadata
// sidecar would surface.
func extractMetadata(doc *html.Node) core.Metadata {
	raw := map[string]any{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Title:
				if title := strings.TrimSpace(rawText(n)); title != "" {
					raw[core.MetaTitle] = title
				}
			case atom.Meta:
				applyMetaTag(raw, n)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return core.NormalizeMetadata(raw)
}

func applyMetaTag(raw map[string]any, n *html.Node) {
	var name, content string
	for _, a := range n.Attr {
		switch a.Key {
		case "name":
			name = strings.ToLower(a.Val)
		case "content":
			content = a.Val
		}
	}
	if content == "" {
		return
	}
	switch name {
	case "author":
		raw[core.MetaAuthors] = []string{content}
	case "description":
		raw[core.MetaSubject] = content
	case "keywords":
		parts := strings.Split(content, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		raw[core.MetaKeywords] = parts
	}
}
