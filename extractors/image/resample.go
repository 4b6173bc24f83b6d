package image

import (
	stdimage "image"

	"golang.org/x/image/draw"
)

// assumedSourceDPI is the resolution standalone image files are treated as
// having when no embedded resolution metadata is read; image/jpeg and
// image/png decoding in this package does not surface DPI tags, so this is
// a fixed assumption rather than a measured value.
const assumedSourceDPI = 72

// resampleForOCR scales img so its effective DPI matches targetDPI, using
// the Catmull-Rom resampling kernel from golang.org/x/image/draw.
func resampleForOCR(img stdimage.Image, targetDPI int) stdimage.Image {
	if targetDPI <= 0 || targetDPI == assumedSourceDPI {
		return img
	}
	scale := float64(targetDPI) / float64(assumedSourceDPI)
	bounds := img.Bounds()
	newWidth := int(float64(bounds.Dx()) * scale)
	newHeight := int(float64(bounds.Dy()) * scale)
	if newWidth <= 0 || newHeight <= 0 {
		return img
	}

	dst := stdimage.NewNRGBA(stdimage.Rect(0, 0, newWidth, newHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}
