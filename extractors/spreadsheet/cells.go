package spreadsheet

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
)

// excelEpoch is serial date 0 under the 1900 date system (with the
// historical leap-year bug Excel inherited from Lotus 1-2-3 baked in, the
// same way every spreadsheet engine interprets serial dates).
var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

type cellKind int

const (
	kindEmpty cellKind = iota
	kindString
	kindBool
	kindDate
	kindTime
	kindDuration
	kindNumber
)

type cell struct {
	kind cellKind
	text string
}

// grid is a sheet's cell values indexed by zero-based [row][col].
type grid struct {
	rows [][]cell
	cols int
}

func (wb *workbook) readSheetGrid(path string) (*grid, error) {
	doc, err := readXML(wb.files, path)
	if err != nil {
		return nil, err
	}

	g := &grid{}
	for _, rowEl := range doc.FindElements("//sheetData/row") {
		rowIndex := rowNumber(rowEl)
		for len(g.rows) <= rowIndex {
			g.rows = append(g.rows, nil)
		}
		row := g.rows[rowIndex]
		for _, c := range rowEl.SelectElements("c") {
			col := columnIndex(c.SelectAttrValue("r", ""))
			for len(row) <= col {
				row = append(row, cell{kind: kindEmpty})
			}
			row[col] = wb.parseCell(c)
			if col+1 > g.cols {
				g.cols = col + 1
			}
		}
		g.rows[rowIndex] = row
	}
	return g, nil
}

func (wb *workbook) parseCell(c *etree.Element) cell {
	t := c.SelectAttrValue("t", "")
	styleIndex, _ := strconv.Atoi(c.SelectAttrValue("s", "0"))

	switch t {
	case "s":
		v := c.SelectElement("v")
		if v == nil {
			return cell{kind: kindEmpty}
		}
		idx, err := strconv.Atoi(v.Text())
		if err != nil || idx < 0 || idx >= len(wb.sharedStrings) {
			return cell{kind: kindEmpty}
		}
		return cell{kind: kindString, text: wb.sharedStrings[idx]}
	case "str":
		if v := c.SelectElement("v"); v != nil {
			return cell{kind: kindString, text: v.Text()}
		}
		return cell{kind: kindEmpty}
	case "inlineStr":
		if is := c.SelectElement("is"); is != nil {
			return cell{kind: kindString, text: sharedStringText(is)}
		}
		return cell{kind: kindEmpty}
	case "b":
		if v := c.SelectElement("v"); v != nil {
			return cell{kind: kindBool, text: v.Text()}
		}
		return cell{kind: kindEmpty}
	case "e":
		if v := c.SelectElement("v"); v != nil {
			return cell{kind: kindString, text: v.Text()}
		}
		return cell{kind: kindEmpty}
	default:
		v := c.SelectElement("v")
		if v == nil {
			return cell{kind: kindEmpty}
		}
		return wb.parseNumericCell(v.Text(), wb.numFmtIDForStyle(styleIndex))
	}
}

// parseNumericCell classifies a raw numeric cell value as a date, time,
// duration, or plain number according to its resolved number format
// (spec table: Date/Time/DateTime -> ISO-8601, Duration -> "<n> seconds").
func (wb *workbook) parseNumericCell(raw string, numFmtID int) cell {
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return cell{kind: kindString, text: raw}
	}

	switch classifyNumFmt(numFmtID, wb.numFmts[numFmtID]) {
	case kindDate:
		t := excelEpoch.Add(time.Duration(n*24*3600) * time.Second)
		if n != float64(int64(n)) {
			return cell{kind: kindDate, text: t.Format("2006-01-02T15:04:05")}
		}
		return cell{kind: kindDate, text: t.Format("2006-01-02")}
	case kindTime:
		t := excelEpoch.Add(time.Duration(n*24*3600) * time.Second)
		return cell{kind: kindTime, text: t.Format("15:04:05")}
	case kindDuration:
		seconds := n * 24 * 3600
		return cell{kind: kindDuration, text: fmt.Sprintf("%d seconds", int64(seconds))}
	default:
		return cell{kind: kindNumber, text: formatNumber(n)}
	}
}

// builtin date/time/duration numFmtId ranges per the OOXML spec (ECMA-376
// part 1, §18.8.30).
func classifyNumFmt(id int, customCode string) cellKind {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return kindDate
	case id >= 18 && id <= 21:
		return kindTime
	case id >= 45 && id <= 47:
		return kindDuration
	}
	if customCode == "" {
		return kindNumber
	}
	lower := strings.ToLower(customCode)
	if strings.Contains(lower, "[h]") || strings.Contains(lower, "[mm]") || strings.Contains(lower, "[ss]") {
		return kindDuration
	}
	hasDatePart := strings.ContainsAny(lower, "ymd") && !strings.Contains(lower, "0")
	hasTimePart := strings.Contains(lower, "h") || strings.Contains(lower, "s")
	switch {
	case hasDatePart && hasTimePart:
		return kindDate
	case hasDatePart:
		return kindDate
	case hasTimePart:
		return kindTime
	default:
		return kindNumber
	}
}

// formatNumber renders a float in canonical decimal form, dropping a
// trailing ".0" for integral values the way spreadsheet UIs display them.
func formatNumber(n float64) string {
	if n == float64(int64(n)) {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

func (c cell) String() string {
	switch c.kind {
	case kindEmpty:
		return ""
	case kindBool:
		if c.text == "1" || strings.EqualFold(c.text, "true") {
			return "true"
		}
		return "false"
	default:
		return c.text
	}
}

func rowNumber(rowEl *etree.Element) int {
	n, err := strconv.Atoi(rowEl.SelectAttrValue("r", "1"))
	if err != nil || n < 1 {
		return 0
	}
	return n - 1
}

// columnIndex converts a cell reference like "AC12" to its zero-based
// column index.
func columnIndex(ref string) int {
	col := 0
	for _, r := range ref {
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A'+1)
	}
	if col == 0 {
		return 0
	}
	return col - 1
}
