// Package html implements the HTML format extractor: a DOM walk that emits
// Markdown, with optional inline-image extraction from data URIs and the
// src of img elements already embedded in the document.
package html
