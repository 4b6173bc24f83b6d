// Package image implements the raw-image extractor: DPI-aware resampling
// of a standalone image file before dispatch to the OCR Orchestrator.
package image
