package pptx

import (
	"archive/zip"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/wudi/kreuzberg-go/core"
)

// slidePart names a slide's XML part path and its relationship part, which
// resolves embedded media and the linked notes slide (if any).
type slidePart struct {
	path     string
	relsPath string
}

// presentation is the parsed skeleton of a PPTX archive: the ordered slide
// list and the core-properties metadata.
type presentation struct {
	files  map[string]*zip.File
	slides []slidePart
}

func openPresentation(zr *zip.Reader) (*presentation, error) {
	files := map[string]*zip.File{}
	for _, f := range zr.File {
		files[f.Name] = f
	}
	p := &presentation{files: files}

	rels, err := readRelationships(files, "ppt/_rels/presentation.xml.rels")
	if err != nil {
		return nil, fmt.Errorf("reading presentation relationships: %w", err)
	}

	doc, err := readXML(files, "ppt/presentation.xml")
	if err != nil {
		return nil, fmt.Errorf("reading presentation.xml: %w", err)
	}

	for _, sldID := range doc.FindElements("//sldIdLst/sldId") {
		rID := sldID.SelectAttrValue("r:id", "")
		target, ok := rels[rID]
		if !ok {
			continue
		}
		path := "ppt/" + strings.TrimPrefix(target, "/ppt/")
		relsPath := partRelsPath(path)
		p.slides = append(p.slides, slidePart{path: path, relsPath: relsPath})
	}

	return p, nil
}

// partRelsPath returns the _rels companion path for an OOXML part, e.g.
// "ppt/slides/slide1.xml" -> "ppt/slides/_rels/slide1.xml.rels".
func partRelsPath(path string) string {
	idx := strings.LastIndex(path, "/")
	dir, file := path[:idx], path[idx+1:]
	return dir + "/_rels/" + file + ".rels"
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

// resolveTarget joins a relationship Target (commonly relative, e.g.
// "../media/image1.png") against the directory the referencing part lives
// in, producing an archive-absolute path.
func resolveTarget(partPath, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	dir := partPath[:strings.LastIndex(partPath, "/")]
	parts := strings.Split(dir, "/")
	for _, seg := range strings.Split(target, "/") {
		switch seg {
		case "..":
			if len(parts) > 0 {
				parts = parts[:len(parts)-1]
			}
		case ".":
		default:
			parts = append(parts, seg)
		}
	}
	return strings.Join(parts, "/")
}

// coreProperties reads docProps/core.xml into extraction metadata.
// Absent the part entirely, it returns an empty Metadata rather than an
// error, since core properties are optional in the OOXML spec.
func (p *presentation) coreProperties() core.Metadata {
	meta := core.Metadata{}
	doc, err := readXML(p.files, "docProps/core.xml")
	if err != nil {
		return meta
	}

	if el := doc.FindElement("//title"); el != nil && el.Text() != "" {
		meta.Set(core.MetaTitle, el.Text())
	}
	if el := doc.FindElement("//creator"); el != nil && el.Text() != "" {
		meta.Set(core.MetaAuthors, splitList(el.Text()))
	}
	if el := doc.FindElement("//description"); el != nil && el.Text() != "" {
		meta.Set("comments", el.Text())
	}
	if el := doc.FindElement("//keywords"); el != nil && el.Text() != "" {
		meta.Set(core.MetaKeywords, splitList(el.Text()))
	}
	if el := doc.FindElement("//revision"); el != nil {
		if rev, err := strconv.Atoi(el.Text()); err == nil {
			meta.Set("version", rev)
		}
	}
	if el := doc.FindElement("//language"); el != nil && el.Text() != "" {
		meta.Set(core.MetaLanguages, []string{el.Text()})
	}
	if el := doc.FindElement("//category"); el != nil && el.Text() != "" {
		meta.Set(core.MetaCategories, splitList(el.Text()))
	}

	return meta
}

func splitList(s string) []string {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
