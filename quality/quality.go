// Package quality implements the post-processing engine of §4.7/§4.8: a
// text cleaner that strips OCR artifacts, embedded script/style markup and
// navigation chrome, and a heuristic quality scorer over the cleaned
// result. Both operate purely over the UTF-8 content string and the
// already-normalized Metadata for a result; neither has any knowledge of
// which extractor produced the text.
package quality

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/wudi/kreuzberg-go/core"
)

var (
	scatteredChars       = regexp.MustCompile(`\b[a-zA-Z]\s{2,}[a-zA-Z]\s{2,}[a-zA-Z]\b`)
	repeatedPunctuation  = regexp.MustCompile(`[.]{3,}|[-]{3,}|[_]{3,}`)
	isolatedPunctuation  = regexp.MustCompile(`\s[.,;:!?]\s`)
	malformedWords       = regexp.MustCompile(`\b[a-zA-Z]+[0-9]+[a-zA-Z]+[a-zA-Z0-9]*\b`)
	excessiveWhitespace  = regexp.MustCompile(`\s{3,}`)
	combinedOCRPattern   = regexp.MustCompile(
		`\b[a-zA-Z]\s{2,}[a-zA-Z]\s{2,}[a-zA-Z]\b|` +
			`[.]{3,}|[-]{3,}|[_]{3,}|` +
			`\s[.,;:!?]\s|` +
			`\b[a-zA-Z]+[0-9]+[a-zA-Z]+[a-zA-Z0-9]*\b|` +
			`\s{3,}|` +
			`[a-z]\s{3,}[A-Z][a-z]`,
	)

	whitespaceNormalize = regexp.MustCompile(`[ \t\f\v\r\x{00a0}\x{2000}-\x{200b}\x{2028}\x{2029}\x{3000}]+`)
	newlineNormalize    = regexp.MustCompile(`\n\s*\n\s*\n+`)
	sentenceDetect      = regexp.MustCompile(`[.!?]\s+[A-Z]`)
	punctuationDetect   = regexp.MustCompile(`[.!?]`)

	jsFunctions = regexp.MustCompile(`(?i)function\s+\w+\s*\([^)]*\)\s*\{[^}]*\}`)
	cssRules    = regexp.MustCompile(`(?i)\.[a-zA-Z][\w-]*\s*\{[^}]*\}`)
	scriptTags  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleTags   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	scriptPatterns = []*regexp.Regexp{jsFunctions, cssRules, scriptTags, styleTags}

	navWords    = regexp.MustCompile(`(?i)\b(?:Skip to main content|Back to top|Main navigation|Site navigation)\b`)
	breadcrumbs = regexp.MustCompile(`(?:Home\s*[>»]\s*|[>»]\s*){2,}`)
	pagination  = regexp.MustCompile(`(?i)\b(?:Page \d+ of \d+|First page|Last page|Previous page|Next page|^\d+ of \d+$)\b`)
	navPatterns = []*regexp.Regexp{navWords, breadcrumbs, pagination}
)

// CleanExtractedText removes script/style markup, common OCR artifacts and
// navigation chrome, then normalizes whitespace (§4.8). Empty input is
// returned unchanged.
func CleanExtractedText(text string) string {
	if text == "" {
		return text
	}

	for _, pattern := range scriptPatterns {
		text = pattern.ReplaceAllString(text, " ")
	}

	text = cleanOCRArtifacts(text)
	text = cleanNavigationElements(text)

	text = whitespaceNormalize.ReplaceAllString(text, " ")
	text = newlineNormalize.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

func cleanOCRArtifacts(text string) string {
	text = scatteredChars.ReplaceAllStringFunc(text, func(m string) string {
		return strings.ReplaceAll(m, " ", "")
	})
	text = repeatedPunctuation.ReplaceAllString(text, "...")
	text = isolatedPunctuation.ReplaceAllString(text, " ")
	text = malformedWords.ReplaceAllString(text, " ")
	return excessiveWhitespace.ReplaceAllString(text, " ")
}

func cleanNavigationElements(text string) string {
	text = navWords.ReplaceAllString(text, " ")
	text = breadcrumbs.ReplaceAllString(text, " ")
	return pagination.ReplaceAllString(text, " ")
}

// CalculateQualityScore scores text in [0, 1]: penalties for OCR artifact
// density, embedded script/style density and navigation-chrome density;
// bonuses for sentence/paragraph structure and metadata richness (§4.7).
// Whitespace-only or empty text scores 0.
func CalculateQualityScore(text string, metadata core.Metadata) float64 {
	if strings.TrimSpace(text) == "" {
		return 0.0
	}

	score := 1.0
	totalChars := utf8.RuneCountInString(text)

	score -= ocrPenalty(text, totalChars) * 0.3
	score -= scriptPenalty(text, totalChars) * 0.2
	score -= navigationPenalty(text, totalChars) * 0.1
	score += structureBonus(text) * 0.2
	score += metadataBonus(metadata) * 0.1

	if score < 0.0 {
		return 0.0
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

func ocrPenalty(text string, totalChars int) float64 {
	if totalChars == 0 {
		return 0.0
	}
	artifactChars := 0
	for _, m := range combinedOCRPattern.FindAllString(text, -1) {
		artifactChars += utf8.RuneCountInString(m)
	}
	return minOne(float64(artifactChars) / float64(totalChars))
}

func scriptPenalty(text string, totalChars int) float64 {
	if totalChars == 0 {
		return 0.0
	}
	chars := 0
	for _, pattern := range scriptPatterns {
		for _, m := range pattern.FindAllString(text, -1) {
			chars += utf8.RuneCountInString(m)
		}
	}
	return minOne(float64(chars) / float64(totalChars))
}

func navigationPenalty(text string, totalChars int) float64 {
	if totalChars == 0 {
		return 0.0
	}
	chars := 0
	for _, pattern := range navPatterns {
		for _, m := range pattern.FindAllString(text, -1) {
			chars += utf8.RuneCountInString(m)
		}
	}
	return minOne(float64(chars) / float64(totalChars))
}

func structureBonus(text string) float64 {
	if text == "" {
		return 0.0
	}

	sentenceCount := len(sentenceDetect.FindAllString(text, -1))
	paragraphCount := len(strings.Split(text, "\n\n"))
	words := len(strings.Fields(text))
	if words == 0 {
		return 0.0
	}

	avgWordsPerSentence := float64(words) / float64(maxOne(sentenceCount))
	avgWordsPerParagraph := float64(words) / float64(maxOne(paragraphCount))

	score := 0.0
	if avgWordsPerSentence >= 10 && avgWordsPerSentence <= 30 {
		score += 0.3
	}
	if avgWordsPerParagraph >= 50 && avgWordsPerParagraph <= 300 {
		score += 0.3
	}
	if paragraphCount > 1 {
		score += 0.2
	}
	if punctuationDetect.MatchString(text) {
		score += 0.2
	}
	return minOne(score)
}

// importantMetadataFields mirrors the original's title/author/subject/
// description/keywords richness check, mapped onto this module's Metadata
// keys (authors is a list here rather than a single author string, and
// description corresponds to the summary field).
var importantMetadataFields = []string{
	core.MetaTitle, core.MetaAuthors, core.MetaSubject, core.MetaKeywords, core.MetaSummary,
}

func metadataBonus(metadata core.Metadata) float64 {
	present := 0
	for _, field := range importantMetadataFields {
		if v, ok := metadata.Get(field); ok && !isEmptyMetaValue(v) {
			present++
		}
	}
	return float64(present) / float64(len(importantMetadataFields))
}

func isEmptyMetaValue(v any) bool {
	switch t := v.(type) {
	case string:
		return t == ""
	case []string:
		return len(t) == 0
	default:
		return false
	}
}

func minOne(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	return v
}

func maxOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
