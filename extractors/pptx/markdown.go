package pptx

import (
	"fmt"
	"html"
	"strings"
)

// renderSlide renders one slide's shapes into the delimited Markdown
// section the spec's slide format calls for, plus any notes text.
func renderSlide(index int, shapes []slideShape, notes string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<!-- Slide number: %d -->\n", index+1)

	for _, shape := range shapes {
		switch shape.kind {
		case shapeText:
			if shape.isTitle {
				b.WriteString("# ")
			}
			b.WriteString(shape.text)
			b.WriteString("\n\n")
		case shapePicture:
			b.WriteString(pictureMarkdown(shape.picture))
			b.WriteString("\n\n")
		case shapeTable:
			b.WriteString(tableHTML(shape.table))
			b.WriteString("\n\n")
		}
	}

	if notes != "" {
		b.WriteString("\n\n### Notes:\n")
		b.WriteString(notes)
		b.WriteString("\n")
	}

	return strings.TrimRight(b.String(), "\n") + "\n"
}

func pictureMarkdown(p pictureShape) string {
	alt := p.alt
	if alt == "" {
		alt = p.name
	}
	filename := p.name + ".jpg"
	return fmt.Sprintf("![%s](%s)", alt, filename)
}

func tableHTML(t tableShape) string {
	var b strings.Builder
	b.WriteString("<table>\n")
	for i, row := range t.rows {
		cellTag := "td"
		if i == 0 {
			cellTag = "th"
		}
		b.WriteString("<tr>")
		for _, cell := range row {
			fmt.Fprintf(&b, "<%s>%s</%s>", cellTag, html.EscapeString(cell), cellTag)
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table>")
	return b.String()
}
