package image

import (
	stdimage "image"
	"testing"
)

func TestResampleForOCRNoopAtAssumedDPI(t *testing.T) {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 10, 10))
	out := resampleForOCR(img, assumedSourceDPI)
	if out.Bounds() != img.Bounds() {
		t.Fatalf("expected unchanged bounds at assumed dpi, got %v", out.Bounds())
	}
}

func TestResampleForOCRScalesUp(t *testing.T) {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 10, 10))
	out := resampleForOCR(img, assumedSourceDPI*2)
	bounds := out.Bounds()
	if bounds.Dx() != 20 || bounds.Dy() != 20 {
		t.Fatalf("expected 20x20 after doubling dpi, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestResampleForOCRZeroTargetIsNoop(t *testing.T) {
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, 10, 10))
	out := resampleForOCR(img, 0)
	if out.Bounds() != img.Bounds() {
		t.Fatalf("expected unchanged bounds for zero target dpi, got %v", out.Bounds())
	}
}
