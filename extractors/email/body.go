package email

import (
	"strings"

	"github.com/jaytaylor/html2text"
	"golang.org/x/net/html"
)

// htmlToPlainText converts an HTML body to plain text, preferring the
// external html2text converter. If that converter errors, it falls back
// to stripping tags and unescaping entities.
func htmlToPlainText(htmlBody string) string {
	if text, err := html2text.FromString(htmlBody, html2text.Options{PrettyTables: false}); err == nil {
		return strings.TrimSpace(text)
	}
	return strings.TrimSpace(stripTagsAndUnescape(htmlBody))
}

func stripTagsAndUnescape(input string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var b strings.Builder
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.WriteString(html.UnescapeString(string(tokenizer.Text())))
			b.WriteString(" ")
		}
	}
}
