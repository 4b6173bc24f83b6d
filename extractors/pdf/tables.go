package pdf

import (
	"fmt"
	"strings"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/pdf/lowlevel"
)

// extractTables reconstructs tables from the text-run geometry of each
// page's content stream (see lowlevel.Extractor.ExtractTables): no
// explicit PDF table structure is involved, only runs of rows whose text
// positions line up into a shared column count.
func extractTables(ext *lowlevel.Extractor, cfg core.ExtractionConfig) ([]core.Table, error) {
	if !cfg.ExtractTables {
		return nil, nil
	}
	found, err := ext.ExtractTables()
	if err != nil {
		return nil, core.NewParsingError("extracting pdf tables",
			core.NewErrorContext("pdf_extract_tables", core.WithCause(err)))
	}

	tables := make([]core.Table, len(found))
	for i, t := range found {
		page := t.Page
		tables[i] = core.Table{
			Rows:       t.Rows,
			Markdown:   renderTableMarkdown(t.Rows),
			PageNumber: &page,
		}
	}
	return tables, nil
}

func renderTableMarkdown(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	writeMarkdownTableRow(&b, rows[0])
	b.WriteString(strings.Repeat("| --- ", len(rows[0])))
	b.WriteString("|\n")
	for _, row := range rows[1:] {
		writeMarkdownTableRow(&b, row)
	}
	return b.String()
}

func writeMarkdownTableRow(b *strings.Builder, row []string) {
	b.WriteString("|")
	for _, cell := range row {
		b.WriteString(" ")
		b.WriteString(strings.ReplaceAll(strings.ReplaceAll(cell, "|", "\\|"), "\n", " "))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func tablesSummary(tables []core.Table) string {
	parts := make([]string, len(tables))
	for i, t := range tables {
		page := "?"
		if t.PageNumber != nil {
			page = fmt.Sprintf("%d", *t.PageNumber)
		}
		parts[i] = fmt.Sprintf("table %d (page %s, %d rows)", i+1, page, len(t.Rows))
	}
	return strings.Join(parts, "; ")
}
