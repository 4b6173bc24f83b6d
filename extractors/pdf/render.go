package pdf

import "github.com/wudi/kreuzberg-go/pdf/lowlevel"

// largestImagePerPage picks, for each page that has at least one embedded
// raster image, the largest one by pixel area as a stand-in for a full
// page render. Pages with no image XObjects are absent from the result;
// callers treat that as "nothing to OCR for this page" rather than an
// error, since most vector/text pages that reach the OCR path do so
// because the text layer failed validation, not because they are scans.
func largestImagePerPage(assets []lowlevel.ImageAsset) map[int]lowlevel.ImageAsset {
	best := make(map[int]lowlevel.ImageAsset)
	for _, asset := range assets {
		current, ok := best[asset.Page]
		if !ok || asset.Width*asset.Height > current.Width*current.Height {
			best[asset.Page] = asset
		}
	}
	return best
}
