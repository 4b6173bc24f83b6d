// Package pandoc implements the Pandoc-bridge extractor family (Markdown,
// OfficeDocument, Ebook, StructuredText, LaTeX, Bibliography, XMLBased,
// TabularData, Misc): a shared shell-out to the external pandoc binary,
// mirroring the way ocr/tesseract drives the tesseract binary. Each class
// differs only in the MIME set it claims; all of them share bridge.go's
// conversion logic and ast.go's AST walk.
package pandoc
