// Package ocr defines the pluggable OCR backend contract (spec §4.5) and
// the Orchestrator that dispatches single-image and batch recognition
// requests against a registered Engine (spec §4.4): a process pool bounded
// by host CPU count and batch results reordered to match submission order.
// The Orchestrator has no version gate of its own; a backend that needs one
// keeps it (ocr/tesseract caches its `tesseract --version` check). Concrete
// backends (the subprocess-based Tesseract driver in ocr/tesseract, the
// optional cloud-based driver in ocr/googlevision) implement Engine or
// BatchEngine; neither depends on the other or on the Orchestrator's
// internals.
package ocr
