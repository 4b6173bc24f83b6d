package pdf

import (
	"github.com/wudi/kreuzberg-go/pdf/filters"
	"github.com/wudi/kreuzberg-go/pdf/security"
)

// newFilterPipeline wires every stream decoder the engine has, not just the
// text-oriented subset a bare page-tree walk needs: DCT/JPX/CCITTFax/JBIG2
// are required to recover the pixel samples behind embedded image XObjects,
// which pure text extraction never touches.
func newFilterPipeline() *filters.Pipeline {
	return filters.NewPipeline(
		[]filters.Decoder{
			filters.NewFlateDecoder(),
			filters.NewLZWDecoder(),
			filters.NewRunLengthDecoder(),
			filters.NewASCII85Decoder(),
			filters.NewASCIIHexDecoder(),
			filters.NewCryptDecoder(),
			filters.NewDCTDecoder(),
			filters.NewJPXDecoder(),
			filters.NewCCITTFaxDecoder(),
			filters.NewJBIG2Decoder(),
		},
		filters.Limits{
			MaxDecompressedSize: security.DefaultLimits().MaxDecompressedSize,
			MaxDecodeTime:       security.DefaultLimits().MaxDecodeTime,
		},
	)
}
