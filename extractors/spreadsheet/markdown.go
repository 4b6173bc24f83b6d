package spreadsheet

import (
	"strings"
)

// renderSheetMarkdown converts a cell grid to a Markdown table preceded by
// a sheet-name heading. The first row is treated as the header; every
// other row is padded to header width with empty cells.
func renderSheetMarkdown(name string, g *grid) string {
	var b strings.Builder
	b.WriteString("## ")
	b.WriteString(name)
	b.WriteString("\n\n")

	if len(g.rows) == 0 || g.cols == 0 {
		return b.String()
	}

	header := padRow(g.rows[0], g.cols)
	writeMarkdownRow(&b, header)
	b.WriteString(strings.Repeat("| --- ", g.cols))
	b.WriteString("|\n")

	for _, row := range g.rows[1:] {
		writeMarkdownRow(&b, padRow(row, g.cols))
	}

	return b.String()
}

func padRow(row []cell, width int) []cell {
	if len(row) >= width {
		return row[:width]
	}
	padded := make([]cell, width)
	copy(padded, row)
	return padded
}

func writeMarkdownRow(b *strings.Builder, row []cell) {
	b.WriteString("|")
	for _, c := range row {
		b.WriteString(" ")
		b.WriteString(escapeMarkdownCell(c.String()))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func escapeMarkdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
