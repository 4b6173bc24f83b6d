package html

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/kreuzberg-go/core"
)

// inlineStyle tracks the active inline formatting while walking text nodes,
// the same accumulate-as-you-descend shape as layout/html.go's TextStyle.
type inlineStyle struct {
	bold   bool
	italic bool
	code   bool
	link   string
}

// renderOptions mirrors core.HTMLToMarkdownConfig's delegate-converter
// knobs this package honors directly instead of passing through to an
// external converter.
type renderOptions struct {
	bulletMarker        string
	strongDelimiter     string
	preserveInlineImages bool
}

func defaultRenderOptions() renderOptions {
	return renderOptions{bulletMarker: "-", strongDelimiter: "**", preserveInlineImages: true}
}

// renderOptionsFromConfig translates core.HTMLToMarkdownConfig into the
// renderer's internal options, falling back to defaults for unset fields.
func renderOptionsFromConfig(cfg core.HTMLToMarkdownConfig) renderOptions {
	opts := defaultRenderOptions()
	if cfg.BulletListMarker != "" {
		opts.bulletMarker = cfg.BulletListMarker
	}
	if cfg.StrongDelimiter != "" {
		opts.strongDelimiter = cfg.StrongDelimiter
	}
	opts.preserveInlineImages = cfg.PreserveInlineImages || cfg == (core.HTMLToMarkdownConfig{})
	return opts
}

// convertToMarkdown walks the parsed DOM and renders it to Markdown. It
// mirrors the block/inline split of a DOM-to-PDF renderer's walk, but
// targets a string builder instead of draw calls.
func convertToMarkdown(doc *html.Node, opts renderOptions) string {
	var out strings.Builder
	walkBlock(doc, &out, opts)
	return strings.TrimSpace(out.String())
}

func walkBlock(n *html.Node, out *strings.Builder, opts renderOptions) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style, atom.Head:
			return
		case atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
			level := int(n.DataAtom - atom.H1 + 1)
			writeBlockLine(out, strings.Repeat("#", level)+" "+inlineText(n, opts))
			return
		case atom.P:
			writeBlockLine(out, inlineText(n, opts))
			return
		case atom.Li:
			writeBlockLine(out, opts.bulletMarker+" "+inlineText(n, opts))
			return
		case atom.Blockquote:
			text := inlineText(n, opts)
			for _, line := range strings.Split(text, "\n") {
				out.WriteString("> " + line + "\n")
			}
			out.WriteString("\n")
			return
		case atom.Pre:
			writeBlockLine(out, "```\n"+rawText(n)+"\n```")
			return
		case atom.Hr:
			writeBlockLine(out, "---")
			return
		case atom.Img:
			if opts.preserveInlineImages {
				writeBlockLine(out, imageMarkdown(n))
			}
			return
		case atom.Table:
			writeBlockLine(out, tableMarkdown(n))
			return
		case atom.Br:
			out.WriteString("\n")
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkBlock(c, out, opts)
	}
}

func writeBlockLine(out *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	out.WriteString(text)
	out.WriteString("\n\n")
}

func inlineText(n *html.Node, opts renderOptions) string {
	var out strings.Builder
	walkInline(n, inlineStyle{}, &out, opts)
	return collapseWhitespace(out.String())
}

func walkInline(n *html.Node, style inlineStyle, out *strings.Builder, opts renderOptions) {
	if n.Type == html.TextNode {
		text := strings.ReplaceAll(n.Data, "\n", " ")
		if text == "" {
			return
		}
		out.WriteString(wrapInline(text, style, opts))
		return
	}

	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.B, atom.Strong:
			style.bold = true
		case atom.I, atom.Em:
			style.italic = true
		case atom.Code, atom.Kbd, atom.Tt:
			style.code = true
		case atom.A:
			for _, a := range n.Attr {
				if a.Key == "href" {
					style.link = a.Val
					break
				}
			}
		case atom.Br:
			out.WriteString("\n")
			return
		case atom.Img:
			if opts.preserveInlineImages {
				out.WriteString(imageMarkdown(n))
			}
			return
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkInline(c, style, out, opts)
	}
}

func wrapInline(text string, style inlineStyle, opts renderOptions) string {
	if style.code {
		text = "`" + text + "`"
	}
	if style.bold {
		text = opts.strongDelimiter + text + opts.strongDelimiter
	}
	if style.italic {
		text = "*" + text + "*"
	}
	if style.link != "" {
		text = "[" + text + "](" + style.link + ")"
	}
	return text
}

func rawText(n *html.Node) string {
	var out strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			out.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimRight(out.String(), "\n")
}

func imageMarkdown(n *html.Node) string {
	var src, alt string
	for _, a := range n.Attr {
		switch a.Key {
		case "src":
			src = a.Val
		case "alt":
			alt = a.Val
		}
	}
	return "![" + alt + "](" + src + ")"
}

// tableMarkdown renders a table element to an HTML block rather than a
// Markdown pipe-table, since Markdown tables cannot express colspan/rowspan
// or nested block content; the bridge extractors use the same escape hatch
// for table shapes.
func tableMarkdown(n *html.Node) string {
	var out strings.Builder
	html.Render(&out, n)
	return out.String()
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
