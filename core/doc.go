// Package core defines the extraction contract shared by every format
// extractor: the configuration and result types (§3 of the extraction
// spec), the error taxonomy (§7), MIME-type normalization, and the
// extractor dispatch registry (§4.1).
//
// core intentionally does not import the concrete extractor packages —
// extractors import core, not the reverse — so that the default registry
// can be assembled one layer up without an import cycle. See the root
// kreuzberg package for that wiring.
package core
