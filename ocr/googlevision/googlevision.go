// Package googlevision implements ocr.Engine backed by the Google Cloud
// Vision API's document text detection, as one of the optional pluggable
// backends named in spec §4.5 (built-in Tesseract, optional EasyOCR,
// optional PaddleOCR, "and any user-registered backend" — this is such a
// user-registered backend, shipped in-module but never selected by
// default).
package googlevision

import (
	"context"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/ocr"
)

// Engine implements ocr.Engine and ocr.Initializer over a Cloud Vision
// ImageAnnotatorClient. The client is expensive to construct (it dials
// Google's API) and is owned for the Engine's lifetime.
type Engine struct {
	client *vision.ImageAnnotatorClient
}

// NewEngine constructs a Cloud Vision client. Credentials are resolved the
// usual Google SDK way (GOOGLE_APPLICATION_CREDENTIALS or workload
// identity); this package never handles key material directly.
func NewEngine(ctx context.Context) (*Engine, error) {
	client, err := vision.NewImageAnnotatorClient(ctx)
	if err != nil {
		return nil, core.NewMissingDependencyError(
			"could not construct Cloud Vision client",
			core.NewErrorContext("ocr_googlevision_init", core.WithCause(err)))
	}
	return &Engine{client: client}, nil
}

func (e *Engine) Name() string { return "googlevision" }

// Initialize is a no-op; the client is already connected by NewEngine. It
// exists to satisfy ocr.Initializer for symmetry with Shutdown.
func (e *Engine) Initialize(ctx context.Context) error { return nil }

// Shutdown closes the underlying gRPC client connection.
func (e *Engine) Shutdown(ctx context.Context) error {
	return e.client.Close()
}

// Recognize submits a single image for document text detection.
func (e *Engine) Recognize(ctx context.Context, in ocr.Input) (ocr.Result, error) {
	image, err := inputImage(in)
	if err != nil {
		return ocr.Result{}, err
	}

	var imageContext *visionpb.ImageContext
	if len(in.Languages) > 0 {
		imageContext = &visionpb.ImageContext{LanguageHints: in.Languages}
	}

	annotation, err := e.client.DetectDocumentText(ctx, image, imageContext)
	if err != nil {
		return ocr.Result{}, core.NewOCRError(
			"Cloud Vision document text detection failed",
			core.NewErrorContext("ocr_recognize", core.WithCause(err)))
	}
	if annotation == nil {
		return ocr.Result{InputID: in.ID}, nil
	}

	return ocr.Result{
		InputID:   in.ID,
		PlainText: annotation.GetText(),
		Blocks:    blocksFromAnnotation(annotation),
		Language:  dominantLanguage(annotation),
	}, nil
}

// RecognizeBatch submits each input independently; Cloud Vision's batch
// annotate endpoint amortizes only network round trips, not meaningfully
// different from sequential calls for the image volumes this module
// expects, so the default per-item pool in ocr.Orchestrator is used
// instead of implementing ocr.BatchEngine here.

func inputImage(in ocr.Input) (*visionpb.Image, error) {
	if len(in.Image) == 0 {
		return nil, core.NewValidationError(
			"googlevision engine requires in-memory image bytes",
			core.NewErrorContext("ocr_recognize"))
	}
	return &visionpb.Image{Content: in.Image}, nil
}

func blocksFromAnnotation(annotation *visionpb.TextAnnotation) []ocr.TextBlock {
	var blocks []ocr.TextBlock
	for _, page := range annotation.GetPages() {
		for _, block := range page.GetBlocks() {
			blocks = append(blocks, ocr.TextBlock{
				Text:       blockText(block),
				Bounds:     boundingBoxRegion(block.GetBoundingBox()),
				Confidence: float64(block.GetConfidence()),
			})
		}
	}
	return blocks
}

func blockText(block *visionpb.Block) string {
	var text string
	for _, para := range block.GetParagraphs() {
		for _, word := range para.GetWords() {
			for _, sym := range word.GetSymbols() {
				text += sym.GetText()
			}
			text += " "
		}
	}
	return text
}

func boundingBoxRegion(box *visionpb.BoundingPoly) ocr.Region {
	verts := box.GetVertices()
	if len(verts) == 0 {
		return ocr.Region{}
	}
	minX, minY := float64(verts[0].GetX()), float64(verts[0].GetY())
	maxX, maxY := minX, minY
	for _, v := range verts[1:] {
		x, y := float64(v.GetX()), float64(v.GetY())
		if x < minX {
			minX = x
		}
		if x > maxX {
			maxX = x
		}
		if y < minY {
			minY = y
		}
		if y > maxY {
			maxY = y
		}
	}
	return ocr.Region{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

func dominantLanguage(annotation *visionpb.TextAnnotation) string {
	pages := annotation.GetPages()
	if len(pages) == 0 {
		return ""
	}
	langs := pages[0].GetProperty().GetDetectedLanguages()
	if len(langs) == 0 {
		return ""
	}
	return langs[0].GetLanguageCode()
}
