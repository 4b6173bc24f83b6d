// Package imagesubsys implements the three image-handling policies of
// spec §4.3: a memory budget enforced over an extractor's raw image list,
// content-addressed deduplication, and per-image OCR dispatch against an
// ocr.Orchestrator. All three are pure transformations over
// []core.ExtractedImage; none of them know which extractor produced the
// images.
package imagesubsys

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/observability"
	"github.com/wudi/kreuzberg-go/ocr"
)

// EnforceBudget implements policy A: images individually over
// core.SingleImageBudgetBytes are rejected outright (logged as a warning
// naming the image's filename); the remainder are greedily admitted in
// ascending size order until the next image would push the running total
// over core.TotalImageBudgetBytes.
func EnforceBudget(images []core.ExtractedImage, log observability.Logger) []core.ExtractedImage {
	if log == nil {
		log = observability.NopLogger{}
	}

	underSingleCap := make([]core.ExtractedImage, 0, len(images))
	for _, img := range images {
		if len(img.Data) > core.SingleImageBudgetBytes {
			log.Warn("image exceeds single-image budget, dropping",
				observability.String("filename", filenameOf(img)),
				observability.Int("size_bytes", len(img.Data)))
			continue
		}
		underSingleCap = append(underSingleCap, img)
	}

	total := 0
	for _, img := range underSingleCap {
		total += len(img.Data)
	}
	if total <= core.TotalImageBudgetBytes {
		return underSingleCap
	}

	log.Warn("total image size exceeds budget, admitting images by ascending size",
		observability.Int("total_bytes", total),
		observability.Int("budget_bytes", core.TotalImageBudgetBytes))

	ordered := append([]core.ExtractedImage(nil), underSingleCap...)
	sort.SliceStable(ordered, func(i, j int) bool { return len(ordered[i].Data) < len(ordered[j].Data) })

	admitted := make([]core.ExtractedImage, 0, len(ordered))
	running := 0
	for _, img := range ordered {
		if running+len(img.Data) > core.TotalImageBudgetBytes {
			continue
		}
		running += len(img.Data)
		admitted = append(admitted, img)
	}
	return admitted
}

// Deduplicate implements policy B: images are kept in their original
// relative order, with every image after the first to share a
// core.ExtractedImage.Fingerprint() value filtered out.
func Deduplicate(images []core.ExtractedImage, log observability.Logger) []core.ExtractedImage {
	if log == nil {
		log = observability.NopLogger{}
	}

	seen := make(map[uint32]bool, len(images))
	kept := make([]core.ExtractedImage, 0, len(images))
	filtered := 0
	for _, img := range images {
		fp := img.Fingerprint()
		if seen[fp] {
			filtered++
			log.Debug("filtering duplicate image", observability.String("filename", filenameOf(img)))
			continue
		}
		seen[fp] = true
		kept = append(kept, img)
	}
	if filtered > 0 {
		log.Info("filtered duplicate images", observability.Int("count", filtered))
	}
	return kept
}

// DispatchOCR implements policy C: each image is validated against the
// configured format/dimension constraints, then valid images are
// submitted to orchestrator as a single batch. Per-image validation or OCR
// failures become ImageOCRResult entries with SkippedReason set rather
// than aborting the whole dispatch; the returned slice is always the same
// length and order as images.
func DispatchOCR(ctx context.Context, orchestrator *ocr.Orchestrator, images []core.ExtractedImage, cfg core.ExtractionConfig, log observability.Logger) []core.ImageOCRResult {
	if log == nil {
		log = observability.NopLogger{}
	}

	results := make([]core.ImageOCRResult, len(images))
	var (
		validIndices []int
		inputs       []ocr.Input
	)

	for i, img := range images {
		if reason := validateForOCR(img, cfg); reason != "" {
			results[i] = core.ImageOCRResult{Image: img, SkippedReason: &reason}
			continue
		}
		validIndices = append(validIndices, i)
		inputs = append(inputs, ocr.Input{
			ID:     fmt.Sprintf("image-%d", i),
			Image:  img.Data,
			Format: string(img.Format),
		})
	}

	if len(inputs) == 0 {
		return results
	}

	ocrResults, err := orchestrator.RecognizeBatch(ctx, inputs)
	if err != nil {
		reason := err.Error()
		for _, idx := range validIndices {
			results[idx] = core.ImageOCRResult{Image: images[idx], SkippedReason: &reason}
		}
		return results
	}

	for n, idx := range validIndices {
		results[idx] = core.ImageOCRResult{
			Image: images[idx],
			OCRResult: core.ExtractionResult{
				Content:  ocrResults[n].PlainText,
				MimeType: "text/plain",
			},
		}
	}
	return results
}

func validateForOCR(img core.ExtractedImage, cfg core.ExtractionConfig) string {
	if len(cfg.ImageOCRFormats) > 0 && !cfg.ImageOCRFormats[img.Format] {
		return fmt.Sprintf("format %s is not in image_ocr_formats", img.Format)
	}
	if img.Dimensions != nil && !img.Dimensions.FitsWithin(cfg.ImageOCRMinDimensions, cfg.ImageOCRMaxDimensions) {
		return fmt.Sprintf("dimensions %dx%d outside configured OCR bounds", img.Dimensions.Width, img.Dimensions.Height)
	}
	return ""
}

// BatchSize returns min(CPU count, taskCount), the sizing rule spec §4.3
// policy C and §4.4 both specify for OCR submission batches.
func BatchSize(taskCount int) int {
	n := runtime.NumCPU()
	if taskCount < n {
		return taskCount
	}
	return n
}

func filenameOf(img core.ExtractedImage) string {
	if img.Filename != nil {
		return *img.Filename
	}
	return "<unnamed>"
}
