// Package semantic holds the small set of document-level types the
// extraction path needs above the raw object model: currently just the
// AcroForm field hierarchy (see forms.go).
package semantic

// Rectangle is a PDF rectangle ([llx lly urx ury] in default user space).
type Rectangle struct {
	LLX, LLY, URX, URY float64
}
