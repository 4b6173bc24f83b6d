package core

import "testing"

func TestPDFPasswordDefaultsToEmptyAttempt(t *testing.T) {
	var p PDFPassword
	got := p.Passwords()
	if len(got) != 1 || got[0] != "" {
		t.Fatalf("zero-value PDFPassword.Passwords() = %v, want [\"\"]", got)
	}
}

func TestPDFPasswordSingle(t *testing.T) {
	p := NewPDFPassword("hunter2")
	got := p.Passwords()
	if len(got) != 1 || got[0] != "hunter2" {
		t.Fatalf("Passwords() = %v, want [hunter2]", got)
	}
}

func TestPDFPasswordList(t *testing.T) {
	p := NewPDFPasswordList([]string{"a", "b", "c"})
	got := p.Passwords()
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("Passwords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Passwords()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDimensionsFitsWithin(t *testing.T) {
	cases := []struct {
		name     string
		d        Dimensions
		min, max Dimensions
		want     bool
	}{
		{"within bounds", Dimensions{100, 100}, Dimensions{10, 10}, Dimensions{200, 200}, true},
		{"below min width", Dimensions{5, 100}, Dimensions{10, 10}, Dimensions{200, 200}, false},
		{"above max height", Dimensions{100, 300}, Dimensions{10, 10}, Dimensions{200, 200}, false},
		{"no constraint", Dimensions{9999, 9999}, Dimensions{}, Dimensions{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.d.FitsWithin(tc.min, tc.max); got != tc.want {
				t.Errorf("FitsWithin() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFingerprintSmallImageUsesFullData(t *testing.T) {
	a := ExtractedImage{Data: []byte("hello world"), Format: ImageFormatPNG}
	b := ExtractedImage{Data: []byte("hello world"), Format: ImageFormatPNG}
	c := ExtractedImage{Data: []byte("goodbye world"), Format: ImageFormatPNG}

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("identical small images should fingerprint equal")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatal("distinct small images should fingerprint differently")
	}
}

func TestFingerprintLargeImageSamplesHeadTail(t *testing.T) {
	mkLarge := func(fill byte, middle byte) []byte {
		data := make([]byte, 4096)
		for i := range data {
			data[i] = fill
		}
		data[2048] = middle
		return data
	}

	a := ExtractedImage{Data: mkLarge(0xAA, 0x01), Format: ImageFormatJPEG}
	b := ExtractedImage{Data: mkLarge(0xAA, 0x02), Format: ImageFormatJPEG}

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("large images differing only in an untouched middle byte should fingerprint equal")
	}
}

func TestEffectiveImageOCRBackend(t *testing.T) {
	cfg := ExtractionConfig{OCRBackend: OCRBackendTesseract}
	if got := cfg.EffectiveImageOCRBackend(); got != OCRBackendTesseract {
		t.Fatalf("got %v, want tesseract", got)
	}

	override := OCRBackendNone
	cfg.ImageOCRBackend = &override
	if got := cfg.EffectiveImageOCRBackend(); got != OCRBackendNone {
		t.Fatalf("got %v, want none", got)
	}
}

func TestTotalImageBytes(t *testing.T) {
	r := ExtractionResult{Images: []ExtractedImage{
		{Data: make([]byte, 10)},
		{Data: make([]byte, 20)},
	}}
	if got := r.TotalImageBytes(); got != 30 {
		t.Fatalf("TotalImageBytes() = %d, want 30", got)
	}
}
