package core

import (
	"path/filepath"
	"strings"
)

// extensionMIMEs is the extension-to-MIME fallback table consulted when a
// caller supplies a file path but no explicit MIME type (spec §4.1). It is
// deliberately narrow: only the formats this module's extractors recognize.
var extensionMIMEs = map[string]string{
	".pdf":  "application/pdf",
	".html": "text/html",
	".htm":  "text/html",
	".xhtml": "application/xhtml+xml",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".ppt":  "application/vnd.ms-powerpoint",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
	".odt":  "application/vnd.oasis.opendocument.text",
	".rtf":  "application/rtf",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".xls":  "application/vnd.ms-excel",
	".ods":  "application/vnd.oasis.opendocument.spreadsheet",
	".csv":  "text/csv",
	".tsv":  "text/tab-separated-values",
	".eml":  "message/rfc822",
	".msg":  "application/vnd.ms-outlook",
	".json": "application/json",
	".yaml": "application/yaml",
	".yml":  "application/yaml",
	".toml": "application/toml",
	".xml":  "application/xml",
	".md":   "text/markdown",
	".markdown": "text/markdown",
	".txt":  "text/plain",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".webp": "image/webp",
	".svg":  "image/svg+xml",
	".epub": "application/epub+zip",
	".bib":  "text/x-bibtex",
	".tex":  "text/x-tex",
}

// MIMETypeForExtension looks up the fallback MIME type for a file
// extension (with or without the leading dot). The empty string is
// returned for unrecognized extensions.
func MIMETypeForExtension(ext string) string {
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return extensionMIMEs[strings.ToLower(ext)]
}

// MIMETypeForPath derives a fallback MIME type from a file path's
// extension, for callers that have a path but no declared content type.
func MIMETypeForPath(path string) string {
	return MIMETypeForExtension(filepath.Ext(path))
}

// NormalizeMIMEType strips RFC 7231 parameters (e.g. "; charset=utf-8") and
// lowercases the type/subtype, so registry lookups and extractor
// SupportedMimeTypes comparisons are insensitive to caller formatting.
func NormalizeMIMEType(mime string) string {
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.ToLower(strings.TrimSpace(mime))
}
