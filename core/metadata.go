package core

// Recognized metadata keys (spec §3). Format extractors may also set
// additional, format-specific keys (e.g. the email extractor's "email_to");
// NormalizeMetadata keeps those alongside the recognized set only when the
// caller names them in its extraKeys argument, and drops any other key.
const (
	MetaTitle            = "title"
	MetaAuthors          = "authors"
	MetaSubject          = "subject"
	MetaKeywords         = "keywords"
	MetaSummary          = "summary"
	MetaCreatedAt        = "created_at"
	MetaModifiedAt       = "modified_at"
	MetaLanguages        = "languages"
	MetaCategories       = "categories"
	MetaCitations        = "citations"
	MetaAttachments      = "attachments"
	MetaTableCount       = "table_count"
	MetaTablesSummary    = "tables_summary"
	MetaQualityScore     = "quality_score"
	MetaImagePreprocess  = "image_preprocessing"
	MetaParseError       = "parse_error"
	MetaWarning          = "warning"
	MetaFonts            = "fonts"
)

// stringListKeys are coerced to []string by NormalizeMetadata, mirroring
// the original's metadata normalization of list-shaped fields.
var stringListKeys = map[string]bool{
	MetaAuthors:     true,
	MetaLanguages:   true,
	MetaCategories:  true,
	MetaCitations:   true,
	MetaAttachments: true,
	MetaFonts:       true,
}

// Metadata is a closed-vocabulary-by-default, extensible-by-format mapping
// of document metadata (spec §3). The zero value is an empty, usable
// Metadata.
type Metadata struct {
	values map[string]any
}

// NewMetadata returns an empty Metadata.
func NewMetadata() Metadata {
	return Metadata{values: make(map[string]any)}
}

// NormalizeMetadata builds a Metadata from a raw, loosely-typed map (as
// produced by a format's native metadata API), coercing known list fields
// to []string and keeping every other key — including extractor-specific
// extensions named in extraKeys — verbatim. Keys present in neither the
// recognized set nor extraKeys are dropped, matching the "unknown keys from
// the source document are dropped during normalization" rule.
func NormalizeMetadata(raw map[string]any, extraKeys ...string) Metadata {
	allowed := make(map[string]bool, len(extraKeys))
	for _, k := range extraKeys {
		allowed[k] = true
	}
	m := NewMetadata()
	for k, v := range raw {
		if v == nil {
			continue
		}
		_, recognized := recognizedMetaFields[k]
		if !recognized && !allowed[k] {
			continue
		}
		if stringListKeys[k] {
			m.values[k] = coerceStringList(v)
			continue
		}
		m.values[k] = v
	}
	return m
}

var recognizedMetaFields = map[string]bool{
	MetaTitle: true, MetaAuthors: true, MetaSubject: true, MetaKeywords: true,
	MetaSummary: true, MetaCreatedAt: true, MetaModifiedAt: true, MetaLanguages: true,
	MetaCategories: true, MetaCitations: true, MetaAttachments: true, MetaTableCount: true,
	MetaTablesSummary: true, MetaQualityScore: true, MetaImagePreprocess: true,
	MetaParseError: true, MetaWarning: true, MetaFonts: true,
}

func coerceStringList(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return []string{t}
	default:
		return nil
	}
}

// Get returns the raw value for key and whether it was present.
func (m Metadata) Get(key string) (any, bool) {
	if m.values == nil {
		return nil, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Set assigns key to value, recognized or not. Metadata.Set is how
// extractors attach per-format extension fields outside the closed set.
func (m *Metadata) Set(key string, value any) {
	if m.values == nil {
		m.values = make(map[string]any)
	}
	m.values[key] = value
}

// Delete removes key, if present.
func (m *Metadata) Delete(key string) {
	delete(m.values, key)
}

// Keys returns the set of keys currently present, in no particular order.
func (m Metadata) Keys() []string {
	out := make([]string, 0, len(m.values))
	for k := range m.values {
		out = append(out, k)
	}
	return out
}

// Title returns the title field, if set.
func (m Metadata) Title() (string, bool) {
	v, ok := m.Get(MetaTitle)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Authors returns the authors list, if set.
func (m Metadata) Authors() ([]string, bool) {
	v, ok := m.Get(MetaAuthors)
	if !ok {
		return nil, false
	}
	s, ok := v.([]string)
	return s, ok
}

// QualityScore returns the quality engine's score, if the quality engine
// has run over this result.
func (m Metadata) QualityScore() (float64, bool) {
	v, ok := m.Get(MetaQualityScore)
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// SetQualityScore records the quality engine's score (spec §4's quality
// package writes this field after scoring a result's content).
func (m *Metadata) SetQualityScore(score float64) {
	m.Set(MetaQualityScore, score)
}

// SetParseError records a non-fatal parse error recovered from during
// extraction (e.g. one bad sheet in an otherwise-readable spreadsheet).
func (m *Metadata) SetParseError(message string) {
	m.Set(MetaParseError, message)
}

// AddWarning appends message to the warning field, which accumulates as a
// newline-joined string, matching how the original surfaces non-fatal
// recovery-strategy outcomes.
func (m *Metadata) AddWarning(message string) {
	existing, _ := m.Get(MetaWarning)
	if s, ok := existing.(string); ok && s != "" {
		m.Set(MetaWarning, s+"\n"+message)
		return
	}
	m.Set(MetaWarning, message)
}
