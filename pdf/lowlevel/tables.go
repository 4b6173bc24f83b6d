package lowlevel

import (
	"math"
	"sort"
	"strings"

	"github.com/wudi/kreuzberg-go/pdf/ir/raw"
	"github.com/wudi/kreuzberg-go/pdf/scanner"
)

// rowTolerance bounds how far apart two text runs' baselines can be and
// still count as the same row when reconstructing a grid from
// content-stream positioning. The value is in unscaled PDF user-space
// units.
const rowTolerance = 3.0

// Table is a grid of text cells reconstructed from a page's content
// stream geometry rather than any explicit table structure in the PDF.
type Table struct {
	Page int
	Rows [][]string
}

type textRun struct {
	x, y float64
	text string
}

// ExtractTables scans each page's content stream for text runs that align
// into two or more rows sharing the same cell count, and reconstructs each
// such run of rows as a Table. It tracks only Td/TD/Tm positioning (no cm,
// no rotation), which is enough for the common case of a generator laying
// out a grid with absolute or per-line-relative text positioning.
func (e *Extractor) ExtractTables() ([]Table, error) {
	var out []Table
	for idx, page := range e.pages {
		blobs := collectContentStreams(e.dec, valueFromDict(page, "Contents"))
		if len(blobs) == 0 {
			continue
		}
		fonts := e.fontDecodersForPage(page)
		var runs []textRun
		for _, data := range blobs {
			runs = append(runs, collectTextRuns(data, fonts)...)
		}
		for _, rows := range detectTables(runs) {
			out = append(out, Table{Page: idx, Rows: rows})
		}
	}
	return out, nil
}

func collectTextRuns(data []byte, fonts map[string]*fontDecoder) []textRun {
	tr := newTokenReader(data)
	if tr == nil {
		return nil
	}
	var operands []raw.Object
	var runs []textRun
	currentFont := ""
	var tx, ty float64

	for {
		tok, err := tr.next()
		if err != nil {
			break
		}
		if tok.Type == scanner.TokenKeyword {
			op := tok.Str
			switch op {
			case "BT":
				tx, ty = 0, 0
			case "Tf":
				if len(operands) >= 2 {
					if name, _ := nameFromObject(operands[len(operands)-2]); name != "" {
						currentFont = name
					}
				}
			case "Td", "TD":
				if len(operands) >= 2 {
					if dx, ok := floatFromObject(operands[len(operands)-2]); ok {
						tx += dx
					}
					if dy, ok := floatFromObject(operands[len(operands)-1]); ok {
						ty += dy
					}
				}
			case "Tm":
				if len(operands) >= 6 {
					if e, ok := floatFromObject(operands[len(operands)-2]); ok {
						tx = e
					}
					if f, ok := floatFromObject(operands[len(operands)-1]); ok {
						ty = f
					}
				}
			case "Tj", "'", "\"":
				if text := textFromString(operands, currentFont, fonts); text != "" {
					runs = append(runs, textRun{x: tx, y: ty, text: text})
				}
			case "TJ":
				if text := textFromArray(operands, currentFont, fonts); text != "" {
					runs = append(runs, textRun{x: tx, y: ty, text: text})
				}
			}
			operands = operands[:0]
			continue
		}
		tr.unread(tok)
		operand, err := parseObject(tr)
		if err != nil {
			break
		}
		operands = append(operands, operand)
	}
	return runs
}

func textFromString(operands []raw.Object, currentFont string, fonts map[string]*fontDecoder) string {
	if len(operands) == 0 {
		return ""
	}
	data := bytesFromStringObject(operands[len(operands)-1])
	if len(data) == 0 {
		return ""
	}
	return strings.TrimSpace(decodeTextBytes(data, fonts[currentFont]))
}

func textFromArray(operands []raw.Object, currentFont string, fonts map[string]*fontDecoder) string {
	if len(operands) == 0 {
		return ""
	}
	arr, _ := operands[len(operands)-1].(*raw.ArrayObj)
	if arr == nil {
		return ""
	}
	var b strings.Builder
	for _, item := range arr.Items {
		data := bytesFromStringObject(item)
		if len(data) == 0 {
			continue
		}
		b.WriteString(decodeTextBytes(data, fonts[currentFont]))
	}
	return strings.TrimSpace(b.String())
}

// detectTables groups runs into rows by y-proximity, then looks for two or
// more consecutive rows sharing the same cell count (at least two cells
// each). Each such run of rows becomes one Table; rows that never line up
// with a neighbor are ordinary prose and are dropped.
func detectTables(runs []textRun) [][][]string {
	if len(runs) == 0 {
		return nil
	}
	sort.SliceStable(runs, func(i, j int) bool { return runs[i].y > runs[j].y })

	type row struct {
		y     float64
		cells []textRun
	}
	var rows []row
	for _, r := range runs {
		if n := len(rows); n > 0 && math.Abs(rows[n-1].y-r.y) <= rowTolerance {
			rows[n-1].cells = append(rows[n-1].cells, r)
			continue
		}
		rows = append(rows, row{y: r.y, cells: []textRun{r}})
	}
	for _, rw := range rows {
		sort.SliceStable(rw.cells, func(i, j int) bool { return rw.cells[i].x < rw.cells[j].x })
	}

	var tables [][][]string
	var block [][]string
	blockCols := 0
	flush := func() {
		if len(block) >= 2 {
			tables = append(tables, block)
		}
		block = nil
		blockCols = 0
	}
	for _, rw := range rows {
		n := len(rw.cells)
		if n < 2 {
			flush()
			continue
		}
		if blockCols != 0 && n != blockCols {
			flush()
		}
		blockCols = n
		texts := make([]string, n)
		for i, c := range rw.cells {
			texts[i] = c.text
		}
		block = append(block, texts)
	}
	flush()
	return tables
}
