package lowlevel

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
)

// EncodePNG converts a decoded PDF image XObject's raw pixel samples (as
// produced by the filters pipeline: NRGBA for DCTDecode/JPXDecode, Gray for
// CCITTFaxDecode, or raw device-colorspace samples for an unfiltered or
// Flate/LZW-only stream) into a PNG-encoded byte slice, the single format
// this engine stores extracted PDF images in.
//
// The sample layout is chosen from the byte count alone: 4 bytes per pixel
// is CMYK when asset.ColorSpace is DeviceCMYK and NRGBA otherwise, 3 bytes
// per pixel is RGB only for DeviceRGB, and 1 byte per pixel is read as
// 8-bit gray whatever the color space. BitsPerComponent is not consulted,
// and ICC-based, Indexed and Separation palettes are not applied. Any
// other length returns an error.
func EncodePNG(asset ImageAsset) ([]byte, error) {
	img, err := decodeSamples(asset)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeSamples(asset ImageAsset) (image.Image, error) {
	if asset.Width <= 0 || asset.Height <= 0 {
		return nil, fmt.Errorf("invalid image dimensions %dx%d", asset.Width, asset.Height)
	}
	bounds := image.Rect(0, 0, asset.Width, asset.Height)
	pixelCount := asset.Width * asset.Height

	switch {
	case len(asset.Data) == pixelCount*4 && asset.ColorSpace == "DeviceCMYK":
		img := image.NewCMYK(bounds)
		copy(img.Pix, asset.Data)
		return img, nil
	case len(asset.Data) == pixelCount*4:
		// NRGBA is the filters pipeline's native output for DCTDecode and
		// JPXDecode regardless of the stream's declared color space.
		img := &image.NRGBA{Pix: asset.Data, Stride: asset.Width * 4, Rect: bounds}
		return img, nil
	case len(asset.Data) == pixelCount*3 && asset.ColorSpace == "DeviceRGB":
		img := image.NewRGBA(bounds)
		for i := 0; i < pixelCount; i++ {
			r, g, b := asset.Data[3*i], asset.Data[3*i+1], asset.Data[3*i+2]
			img.Set(i%asset.Width, i/asset.Width, color.RGBA{R: r, G: g, B: b, A: 0xFF})
		}
		return img, nil
	case len(asset.Data) == pixelCount:
		img := &image.Gray{Pix: asset.Data, Stride: asset.Width, Rect: bounds}
		return img, nil
	default:
		return nil, fmt.Errorf("unsupported sample layout: %d bytes for %dx%d %s", len(asset.Data), asset.Width, asset.Height, asset.ColorSpace)
	}
}
