package html

import (
	"encoding/base64"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/observability"
)

// collectDataURIImages walks every img element and decodes the ones whose
// src is a data: URI. HTML documents routinely reference images by remote
// URL; this extractor never fetches network resources, so only images
// already embedded inline in the markup are recoverable here.
func collectDataURIImages(doc *html.Node, log observability.Logger) []core.ExtractedImage {
	var images []core.ExtractedImage
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Img {
			if img, ok := decodeDataURIImage(n, log); ok {
				images = append(images, img)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return images
}

func decodeDataURIImage(n *html.Node, log observability.Logger) (core.ExtractedImage, bool) {
	var src, alt string
	for _, a := range n.Attr {
		switch a.Key {
		case "src":
			src = a.Val
		case "alt":
			alt = a.Val
		}
	}
	if !strings.HasPrefix(src, "data:") {
		return core.ExtractedImage{}, false
	}

	header, payload, ok := strings.Cut(src[len("data:"):], ",")
	if !ok {
		log.Warn("skipping malformed data uri image")
		return core.ExtractedImage{}, false
	}
	mimeType, isBase64 := parseDataURIHeader(header)
	if !isBase64 {
		log.Warn("skipping non-base64 data uri image", observability.String("mime", mimeType))
		return core.ExtractedImage{}, false
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		log.Warn("skipping data uri image with invalid base64", observability.Error("error", err))
		return core.ExtractedImage{}, false
	}

	img := core.ExtractedImage{
		Data:   data,
		Format: imageFormatFromMime(mimeType),
	}
	if alt != "" {
		img.Description = &alt
	}
	return img, true
}

func parseDataURIHeader(header string) (mimeType string, isBase64 bool) {
	parts := strings.Split(header, ";")
	mimeType = parts[0]
	for _, p := range parts[1:] {
		if p == "base64" {
			isBase64 = true
		}
	}
	return mimeType, isBase64
}

func imageFormatFromMime(mimeType string) core.ImageFormat {
	switch mimeType {
	case "image/jpeg", "image/jpg":
		return core.ImageFormatJPEG
	case "image/gif":
		return core.ImageFormatGIF
	case "image/bmp":
		return core.ImageFormatBMP
	case "image/tiff":
		return core.ImageFormatTIFF
	case "image/webp":
		return core.ImageFormatWebP
	case "image/svg+xml":
		return core.ImageFormatSVG
	default:
		return core.ImageFormatPNG
	}
}
