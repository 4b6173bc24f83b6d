// Package email implements the RFC 5322 message extractor: recognized
// headers are prepended to the text body in a fixed order, address
// fields are normalized to comma-joined address lists, and attachment
// names are collected into metadata. HTML-only messages fall back to an
// external HTML-to-text converter, and further to tag stripping when
// that converter errors.
package email
