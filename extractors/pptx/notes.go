package pptx

const notesRelationType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/notesSlide"

// slideNotesText returns a slide's linked notes text, or "" if the slide
// has no notes relationship.
func (p *presentation) slideNotesText(slide slidePart) string {
	doc, err := readXML(p.files, slide.relsPath)
	if err != nil {
		return ""
	}

	var notesPath string
	for _, rel := range doc.FindElements("//Relationship") {
		if rel.SelectAttrValue("Type", "") == notesRelationType {
			notesPath = resolveTarget(slide.path, rel.SelectAttrValue("Target", ""))
			break
		}
	}
	if notesPath == "" {
		return ""
	}

	notesDoc, err := readXML(p.files, notesPath)
	if err != nil {
		return ""
	}

	spTree := notesDoc.FindElement("//cSld/spTree")
	if spTree == nil {
		return ""
	}

	var lines []string
	for _, sp := range spTree.SelectElements("sp") {
		ph := sp.FindElement(".//nvSpPr/nvPr/ph")
		if ph == nil || ph.SelectAttrValue("type", "") != "body" {
			continue
		}
		if txBody := sp.SelectElement("txBody"); txBody != nil {
			lines = append(lines, extractTextBody(txBody))
		}
	}
	return joinNonEmpty(lines, "\n")
}
