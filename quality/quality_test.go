package quality

import (
	"strings"
	"testing"

	"github.com/wudi/kreuzberg-go/core"
)

func TestCleanExtractedTextEmpty(t *testing.T) {
	if got := CleanExtractedText(""); got != "" {
		t.Fatalf("CleanExtractedText(\"\") = %q, want empty", got)
	}
}

func TestCleanExtractedTextStripsScriptAndStyle(t *testing.T) {
	in := "Intro <script>alert('x')</script> middle <style>.a{color:red}</style> end"
	got := CleanExtractedText(in)
	if strings.Contains(got, "alert") || strings.Contains(got, "color:red") {
		t.Fatalf("expected script/style content stripped, got %q", got)
	}
	if !strings.Contains(got, "Intro") || !strings.Contains(got, "end") {
		t.Fatalf("expected surrounding text preserved, got %q", got)
	}
}

func TestCleanExtractedTextNormalizesWhitespace(t *testing.T) {
	got := CleanExtractedText("a   b\t\tc")
	if got != "ab c" {
		t.Fatalf("got %q, want \"ab c\"", got)
	}
}

func TestCleanExtractedTextCollapsesTripleNewlines(t *testing.T) {
	got := CleanExtractedText("para one\n\n\n\npara two")
	if got != "para one\n\npara two" {
		t.Fatalf("got %q", got)
	}
}

func TestCleanExtractedTextStripsNavigationChrome(t *testing.T) {
	got := CleanExtractedText("Skip to main content\nReal article body here.")
	if strings.Contains(got, "Skip to main content") {
		t.Fatalf("expected nav phrase stripped, got %q", got)
	}
	if !strings.Contains(got, "Real article body") {
		t.Fatalf("expected real content preserved, got %q", got)
	}
}

func TestCalculateQualityScoreEmptyIsZero(t *testing.T) {
	if got := CalculateQualityScore("   ", core.NewMetadata()); got != 0.0 {
		t.Fatalf("got %v, want 0", got)
	}
}

func TestCalculateQualityScoreWellStructuredTextScoresHigh(t *testing.T) {
	sentence := "This is a reasonably long sentence with a dozen or so words in it for structure."
	var paras []string
	for i := 0; i < 3; i++ {
		var words []string
		for j := 0; j < 60; j++ {
			words = append(words, sentence)
		}
		paras = append(paras, strings.Join(words, " "))
	}
	text := strings.Join(paras, "\n\n")

	meta := core.NormalizeMetadata(map[string]any{
		"title":    "A Report",
		"authors":  []any{"Ada Lovelace"},
		"subject":  "Testing",
		"keywords": "quality",
		"summary":  "A summary",
	})

	got := CalculateQualityScore(text, meta)
	if got <= 0.5 {
		t.Fatalf("expected a high score for well-structured, richly-described text, got %v", got)
	}
}

func TestCalculateQualityScoreDegradesForOCRArtifacts(t *testing.T) {
	clean := "This document contains a clearly written paragraph of normal prose text."
	noisy := "T h i s   i s   s c a t t e r e d   g a r b a g e .... ----- ___ text1abc2def text3ghi"

	cleanScore := CalculateQualityScore(clean, core.NewMetadata())
	noisyScore := CalculateQualityScore(noisy, core.NewMetadata())

	if noisyScore >= cleanScore {
		t.Fatalf("expected noisy text to score lower: clean=%v noisy=%v", cleanScore, noisyScore)
	}
}

func TestCalculateQualityScoreClampedToUnitRange(t *testing.T) {
	got := CalculateQualityScore("x", core.NewMetadata())
	if got < 0.0 || got > 1.0 {
		t.Fatalf("score %v out of [0,1]", got)
	}
}
