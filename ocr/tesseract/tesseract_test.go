package tesseract

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os/exec"
	"strings"
	"testing"

	"github.com/wudi/kreuzberg-go/ocr"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

func TestBuildArgsDefaults(t *testing.T) {
	args := buildArgs("/tmp/in.png", "/tmp/out", ocr.Input{})
	want := []string{"/tmp/in.png", "/tmp/out", "-l", "eng", "--psm", "3", "--oem", "1", "--loglevel", "OFF"}
	if len(args) != len(want) {
		t.Fatalf("buildArgs() = %v, want %v", args, want)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("buildArgs()[%d] = %q, want %q", i, args[i], want[i])
		}
	}
}

func TestBuildArgsMultiLanguageAndFlags(t *testing.T) {
	in := ocr.Input{
		Languages:   []string{"eng", "deu"},
		PSM:         6,
		ConfigFlags: map[string]bool{"tessedit_dont_blkrej_good_wds": true, "tessedit_zero_rejection": false},
	}
	args := buildArgs("/tmp/in.png", "/tmp/out", in)
	joined := strings.Join(args, " ")
	if !strings.Contains(joined, "-l eng+deu") {
		t.Fatalf("expected joined language codes, got %q", joined)
	}
	if !strings.Contains(joined, "--psm 6") {
		t.Fatalf("expected psm override, got %q", joined)
	}
	if !strings.Contains(joined, "-c tessedit_dont_blkrej_good_wds=1") {
		t.Fatalf("expected true flag encoded as 1, got %q", joined)
	}
	if !strings.Contains(joined, "-c tessedit_zero_rejection=0") {
		t.Fatalf("expected false flag encoded as 0, got %q", joined)
	}
}

func TestNormalizeWhitespace(t *testing.T) {
	got := normalizeWhitespace("  hello   world  \n\n\n\nsecond paragraph  ")
	if got != "hello world\n\nsecond paragraph" {
		t.Fatalf("normalizeWhitespace() = %q", got)
	}
}

// ensureTesseractAvailable skips the test when no tesseract binary is on
// PATH, matching how the original engine's integration test was gated.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func TestEngineRecognizeEndToEnd(t *testing.T) {
	ensureTesseractAvailable(t)

	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	d := &font.Drawer{Dst: img, Src: image.Black, Face: basicfont.Face7x13, Dot: fixed.P(10, 50)}
	d.DrawString("Hello PDF")

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	engine := NewEngine()
	res, err := engine.Recognize(context.Background(), ocr.Input{
		ID:        "page-0",
		Image:     buf.Bytes(),
		Format:    "png",
		Languages: []string{"eng"},
		DPI:       300,
	})
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}
	got := strings.ToLower(res.PlainText)
	if !strings.Contains(got, "hello") || !strings.Contains(got, "pdf") {
		t.Fatalf("unexpected OCR output: %q", res.PlainText)
	}
	if res.InputID != "page-0" {
		t.Fatalf("unexpected input id: %s", res.InputID)
	}
}

func TestEngineRejectsUnsupportedLanguage(t *testing.T) {
	ensureTesseractAvailable(t)
	engine := NewEngine()
	_, err := engine.Recognize(context.Background(), ocr.Input{
		Image:     []byte{0x89, 'P', 'N', 'G'},
		Languages: []string{"not-a-real-language"},
	})
	if err == nil {
		t.Fatal("expected a validation error for an unsupported language code")
	}
}
