// Package pdf implements the PDF format extractor: a searchable-text path
// with a corruption-ratio quality gate, an OCR fallback path over embedded
// page images, encrypted-document password retry, and the per-canonical-
// path locking and transient-error retry the underlying PDFium-equivalent
// engine in pdf/ requires.
package pdf
