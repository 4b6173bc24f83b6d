// Package pptx implements the PPTX format extractor: an OOXML presentation
// container is opened as a ZIP archive, its slide XML parts are walked
// shape by shape, and each slide is rendered as a `<!-- Slide number: N -->`
// delimited Markdown section with inline image references, HTML tables,
// and an appended notes section where present.
package pptx
