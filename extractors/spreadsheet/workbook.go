package spreadsheet

import (
	"archive/zip"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// sheet holds a single worksheet's name and its raw XML part path.
type sheet struct {
	name string
	path string
}

// workbook is the parsed skeleton of an XLSX archive: the ordered sheet
// list, the shared string table, and the numeric format lookup needed to
// tell dates and durations apart from plain numbers.
type workbook struct {
	sheets        []sheet
	sharedStrings []string
	numFmts       map[int]string
	cellXfNumFmt  []int
	files         map[string]*zip.File
}

func openWorkbook(zr *zip.Reader) (*workbook, error) {
	files := map[string]*zip.File{}
	for _, f := range zr.File {
		files[f.Name] = f
	}

	wb := &workbook{numFmts: map[int]string{}, files: files}

	rels, err := readRelationships(files, "xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, fmt.Errorf("reading workbook relationships: %w", err)
	}

	workbookDoc, err := readXML(files, "xl/workbook.xml")
	if err != nil {
		return nil, fmt.Errorf("reading workbook.xml: %w", err)
	}
	for _, sheetEl := range workbookDoc.FindElements("//sheets/sheet") {
		name := sheetEl.SelectAttrValue("name", "")
		rID := sheetEl.SelectAttrValue("r:id", "")
		target, ok := rels[rID]
		if !ok {
			continue
		}
		wb.sheets = append(wb.sheets, sheet{name: name, path: "xl/" + strings.TrimPrefix(target, "/xl/")})
	}

	if sstDoc, err := readXML(files, "xl/sharedStrings.xml"); err == nil {
		for _, si := range sstDoc.FindElements("//si") {
			wb.sharedStrings = append(wb.sharedStrings, sharedStringText(si))
		}
	}

	if stylesDoc, err := readXML(files, "xl/styles.xml"); err == nil {
		for _, fmtEl := range stylesDoc.FindElements("//numFmts/numFmt") {
			id, err := strconv.Atoi(fmtEl.SelectAttrValue("numFmtId", ""))
			if err != nil {
				continue
			}
			wb.numFmts[id] = fmtEl.SelectAttrValue("formatCode", "")
		}
		for _, xf := range stylesDoc.FindElements("//cellXfs/xf") {
			id, err := strconv.Atoi(xf.SelectAttrValue("numFmtId", "0"))
			if err != nil {
				id = 0
			}
			wb.cellXfNumFmt = append(wb.cellXfNumFmt, id)
		}
	}

	return wb, nil
}

// sharedStringText concatenates a shared-string entry's text runs,
// handling both the plain <si><t> form and the rich-text <si><r><t> form.
func sharedStringText(si *etree.Element) string {
	if t := si.SelectElement("t"); t != nil {
		return t.Text()
	}
	var b strings.Builder
	for _, r := range si.SelectElements("r") {
		if t := r.SelectElement("t"); t != nil {
			b.WriteString(t.Text())
		}
	}
	return b.String()
}

func readXML(files map[string]*zip.File, name string) (*etree.Document, error) {
	f, ok := files[name]
	if !ok {
		return nil, fmt.Errorf("part %q not found", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(rc); err != nil {
		return nil, err
	}
	return doc, nil
}

func readRelationships(files map[string]*zip.File, name string) (map[string]string, error) {
	doc, err := readXML(files, name)
	if err != nil {
		return nil, err
	}
	rels := map[string]string{}
	for _, rel := range doc.FindElements("//Relationship") {
		rels[rel.SelectAttrValue("Id", "")] = rel.SelectAttrValue("Target", "")
	}
	return rels, nil
}

// numFmtIDForStyle resolves a cell's style index (the "s" attribute) to its
// numeric format ID via the styles.xml cellXfs table.
func (wb *workbook) numFmtIDForStyle(styleIndex int) int {
	if styleIndex < 0 || styleIndex >= len(wb.cellXfNumFmt) {
		return 0
	}
	return wb.cellXfNumFmt[styleIndex]
}
