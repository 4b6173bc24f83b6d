package pptx

import (
	"github.com/beevik/etree"
)

type shapeKind int

const (
	shapeText shapeKind = iota
	shapePicture
	shapeTable
)

type pictureShape struct {
	name      string
	alt       string
	mediaPath string
}

type tableShape struct {
	rows [][]string
}

type slideShape struct {
	kind    shapeKind
	text    string
	isTitle bool
	picture pictureShape
	table   tableShape
}

// walkSlideShapes parses a slide XML part into its ordered top-level
// shapes (text frames, pictures, tables) and the set of font names used in
// its text runs. Shapes nested inside a group (p:grpSp) are not
// recursed into; real-world decks overwhelmingly place content shapes
// directly under the slide's shape tree.
func walkSlideShapes(doc *etree.Document, rels map[string]string, slidePath string) ([]slideShape, map[string]bool) {
	fonts := map[string]bool{}
	var shapes []slideShape

	spTree := doc.FindElement("//cSld/spTree")
	if spTree == nil {
		return nil, fonts
	}

	for _, child := range spTree.ChildElements() {
		switch child.Tag {
		case "sp":
			shape, shapeFonts := parseTextShape(child)
			collectFonts(fonts, shapeFonts)
			if shape.text != "" {
				shapes = append(shapes, shape)
			}
		case "pic":
			shapes = append(shapes, parsePictureShape(child, rels, slidePath))
		case "graphicFrame":
			if tbl := child.FindElement(".//tbl"); tbl != nil {
				shapes = append(shapes, parseTableShape(tbl))
			}
		}
	}

	return shapes, fonts
}

func parseTextShape(sp *etree.Element) (slideShape, []string) {
	isTitle := false
	if ph := sp.FindElement(".//nvSpPr/nvPr/ph"); ph != nil {
		switch ph.SelectAttrValue("type", "") {
		case "title", "ctrTitle":
			isTitle = true
		}
	}

	var fonts []string
	var text string
	if txBody := sp.SelectElement("txBody"); txBody != nil {
		text = extractTextBody(txBody)
		fonts = collectTypefaces(txBody)
	}

	return slideShape{kind: shapeText, text: text, isTitle: isTitle}, fonts
}

func extractTextBody(txBody *etree.Element) string {
	var lines []string
	for _, p := range txBody.SelectElements("p") {
		var line string
		for _, r := range p.FindElements(".//r") {
			if t := r.SelectElement("t"); t != nil {
				line += t.Text()
			}
		}
		lines = append(lines, line)
	}
	return joinNonEmpty(lines, "\n")
}

func collectTypefaces(txBody *etree.Element) []string {
	var fonts []string
	for _, latin := range txBody.FindElements(".//latin") {
		if tf := latin.SelectAttrValue("typeface", ""); tf != "" && tf != "+mn-lt" && tf != "+mj-lt" {
			fonts = append(fonts, tf)
		}
	}
	return fonts
}

func collectFonts(set map[string]bool, fonts []string) {
	for _, f := range fonts {
		set[f] = true
	}
}

func parsePictureShape(pic *etree.Element, rels map[string]string, slidePath string) slideShape {
	name, alt := "", ""
	if cNvPr := pic.FindElement(".//nvPicPr/cNvPr"); cNvPr != nil {
		name = cNvPr.SelectAttrValue("name", "")
		alt = cNvPr.SelectAttrValue("descr", "")
	}

	mediaPath := ""
	if blip := pic.FindElement(".//blipFill/blip"); blip != nil {
		embedID := blip.SelectAttrValue("r:embed", "")
		if target, ok := rels[embedID]; ok {
			mediaPath = resolveTarget(slidePath, target)
		}
	}

	return slideShape{
		kind:    shapePicture,
		picture: pictureShape{name: name, alt: alt, mediaPath: mediaPath},
	}
}

func parseTableShape(tbl *etree.Element) slideShape {
	var rows [][]string
	for _, tr := range tbl.SelectElements("tr") {
		var cells []string
		for _, tc := range tr.SelectElements("tc") {
			text := ""
			if txBody := tc.SelectElement("txBody"); txBody != nil {
				text = extractTextBody(txBody)
			}
			cells = append(cells, text)
		}
		rows = append(rows, cells)
	}
	return slideShape{kind: shapeTable, table: tableShape{rows: rows}}
}

func joinNonEmpty(lines []string, sep string) string {
	result := ""
	for i, l := range lines {
		if i > 0 {
			result += sep
		}
		result += l
	}
	return result
}
