// Package spreadsheet implements the spreadsheet extractor: it opens an
// OOXML workbook (XLSX) as a ZIP archive, walks each worksheet's XML part,
// and renders the cell grid as a Markdown table preceded by a sheet-name
// heading.
package spreadsheet
