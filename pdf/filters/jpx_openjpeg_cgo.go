//go:build openjpeg && cgo

package filters

/*
#cgo pkg-config: libopenjp2
#include <stdint.h>
#include <stdlib.h>
#include <string.h>
#ifndef __has_include
#define __has_include(x) 0
#endif
#if __has_include(<openjpeg-2.5/openjpeg.h>)
#include <openjpeg-2.5/openjpeg.h>
#elif __has_include(<openjpeg-2.4/openjpeg.h>)
#include <openjpeg-2.4/openjpeg.h>
#elif __has_include(<openjpeg-2.3/openjpeg.h>)
#include <openjpeg-2.3/openjpeg.h>
#else
#include <openjpeg.h>
#endif

typedef struct {
	uint8_t *data;
	size_t length;
	size_t offset;
} krzpdf_jpx_buffer;

static void krzpdf_jpx_buffer_free(void *user_data) {
	krzpdf_jpx_buffer *buffer = (krzpdf_jpx_buffer*)user_data;
	if (!buffer) {
		return;
	}
	if (buffer->data) {
		free(buffer->data);
	}
	free(buffer);
}

static krzpdf_jpx_buffer* krzpdf_jpx_buffer_from_cmem(uint8_t *data, size_t len) {
	krzpdf_jpx_buffer *buffer = (krzpdf_jpx_buffer*)malloc(sizeof(krzpdf_jpx_buffer));
	if (!buffer) {
		return NULL;
	}
	buffer->data = data;
	buffer->length = len;
	buffer->offset = 0;
	return buffer;
}

static OPJ_SIZE_T krzpdf_jpx_stream_read(void *p_buffer, OPJ_SIZE_T nb_bytes, void *p_user_data) {
	krzpdf_jpx_buffer *buffer = (krzpdf_jpx_buffer*)p_user_data;
	if (!buffer || nb_bytes == 0) {
		return 0;
	}
	size_t remaining = 0;
	if (buffer->length > buffer->offset) {
		remaining = buffer->length - buffer->offset;
	}
	if ((size_t)nb_bytes > remaining) {
		nb_bytes = (OPJ_SIZE_T)remaining;
	}
	if (nb_bytes > 0) {
		memcpy(p_buffer, buffer->data + buffer->offset, (size_t)nb_bytes);
		buffer->offset += (size_t)nb_bytes;
	}
	return nb_bytes;
}

static OPJ_OFF_T krzpdf_jpx_stream_skip(OPJ_OFF_T nb_bytes, void *p_user_data) {
	krzpdf_jpx_buffer *buffer = (krzpdf_jpx_buffer*)p_user_data;
	if (!buffer || nb_bytes <= 0) {
		return 0;
	}
	size_t available = 0;
	if (buffer->length > buffer->offset) {
		available = buffer->length - buffer->offset;
	}
	size_t request = (size_t)nb_bytes;
	if (request > available) {
		request = available;
	}
	buffer->offset += request;
	return (OPJ_OFF_T)request;
}

static OPJ_BOOL krzpdf_jpx_stream_seek(OPJ_OFF_T nb_bytes, void *p_user_data) {
	krzpdf_jpx_buffer *buffer = (krzpdf_jpx_buffer*)p_user_data;
	if (!buffer || nb_bytes < 0) {
		return OPJ_FALSE;
	}
	size_t target = (size_t)nb_bytes;
	if (target > buffer->length) {
		return OPJ_FALSE;
	}
	buffer->offset = target;
	return OPJ_TRUE;
}

static opj_stream_t* krzpdf_jpx_stream_create_reader(krzpdf_jpx_buffer *buffer) {
	if (!buffer) {
		return NULL;
	}
	opj_stream_t *stream = opj_stream_create(OPJ_J2K_STREAM_CHUNK_SIZE, OPJ_TRUE);
	if (!stream) {
		return NULL;
	}
	opj_stream_set_user_data(stream, buffer, krzpdf_jpx_buffer_free);
	opj_stream_set_user_data_length(stream, buffer->length);
	opj_stream_set_read_function(stream, krzpdf_jpx_stream_read);
	opj_stream_set_skip_function(stream, krzpdf_jpx_stream_skip);
	opj_stream_set_seek_function(stream, krzpdf_jpx_stream_seek);
	return stream;
}

void krzpdf_jpx_on_message(void *handle_ptr, const char *message);

static void krzpdf_jpx_error_callback(const char *msg, void *client_data) {
	krzpdf_jpx_on_message(client_data, msg);
}

static opj_event_mgr_t* krzpdf_jpx_create_event_mgr(void) {
	opj_event_mgr_t *mgr = (opj_event_mgr_t*)malloc(sizeof(opj_event_mgr_t));
	if (!mgr) {
		return NULL;
	}
	memset(mgr, 0, sizeof(opj_event_mgr_t));
	mgr->error_handler = krzpdf_jpx_error_callback;
	return mgr;
}

static void krzpdf_jpx_install_event_mgr(opj_codec_t *codec, opj_event_mgr_t *mgr, void *handle_ptr) {
	if (!codec || !mgr) {
		return;
	}
	opj_set_event_mgr(codec, mgr, handle_ptr);
}
*/
import "C"

import (
	"context"
	"errors"
	"fmt"
	"runtime/cgo"
	"unsafe"
)

// jpxDecodeError latches the first message OpenJPEG's error callback
// reports during a decode attempt.
type jpxDecodeError struct{ message string }

//export krzpdf_jpx_on_message
func krzpdf_jpx_on_message(handlePtr unsafe.Pointer, message *C.char) {
	if handlePtr == nil || message == nil {
		return
	}
	handle := *(*cgo.Handle)(handlePtr)
	if state, ok := handle.Value().(*jpxDecodeError); ok && state.message == "" {
		state.message = C.GoString(message)
	}
}

func (e *jpxDecodeError) wrap(stage string) error {
	if e != nil && e.message != "" {
		return fmt.Errorf("jpx %s decode failed: %s", stage, e.message)
	}
	return fmt.Errorf("jpx %s decode failed", stage)
}

// decodeJPXOpenJPEG decodes a JPEG 2000 codestream embedded as a PDF image
// XObject. PDF streams with filter JPXDecode may carry either a bare J2K
// codestream or a full JP2 box structure. Data that starts with the J2K SOC
// marker is decoded as J2K only; anything else is tried as JP2 first and,
// on failure, as a bare J2K codestream, since some generators mislabel one
// as the other.
func decodeJPXOpenJPEG(ctx context.Context, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, errors.New("JPX stream empty")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	primary := C.OPJ_CODEC_JP2
	if jpxLooksLikeRawCodestream(data) {
		primary = C.OPJ_CODEC_J2K
	}
	if pix, err := jpxDecodeAs(ctx, data, primary); err == nil {
		return pix, nil
	} else if primary == C.OPJ_CODEC_J2K {
		return nil, err
	} else if pix, ferr := jpxDecodeAs(ctx, data, C.OPJ_CODEC_J2K); ferr == nil {
		return pix, nil
	} else {
		return nil, err
	}
}

// jpxLooksLikeRawCodestream reports whether data starts with the J2K SOC
// marker (0xFF4F) rather than a JP2 box signature.
func jpxLooksLikeRawCodestream(data []byte) bool {
	return len(data) > 1 && data[0] == 0xFF && data[1] == 0x4F
}

func jpxDecodeAs(ctx context.Context, data []byte, format C.OPJ_CODEC_FORMAT) ([]byte, error) {
	cBuf := C.CBytes(data)
	if cBuf == nil && len(data) > 0 {
		return nil, errors.New("allocate JPX buffer")
	}
	buffer := C.krzpdf_jpx_buffer_from_cmem((*C.uint8_t)(cBuf), C.size_t(len(data)))
	if buffer == nil {
		if cBuf != nil {
			C.free(cBuf)
		}
		return nil, errors.New("initialize JPX buffer")
	}
	stream := C.krzpdf_jpx_stream_create_reader(buffer)
	if stream == nil {
		return nil, errors.New("create JPX stream")
	}
	defer C.opj_stream_destroy(stream)

	codec := C.opj_create_decompress(format)
	if codec == nil {
		return nil, errors.New("create JPX codec")
	}
	defer C.opj_destroy_codec(codec)

	var decodeErr jpxDecodeError
	handle := cgo.NewHandle(&decodeErr)
	defer handle.Delete()

	handlePtr := C.malloc(C.size_t(unsafe.Sizeof(handle)))
	if handlePtr == nil {
		return nil, errors.New("allocate JPX handle")
	}
	defer C.free(handlePtr)
	*(*cgo.Handle)(handlePtr) = handle

	eventMgr := C.krzpdf_jpx_create_event_mgr()
	if eventMgr == nil {
		return nil, errors.New("create JPX event manager")
	}
	defer C.free(unsafe.Pointer(eventMgr))
	C.krzpdf_jpx_install_event_mgr(codec, eventMgr, handlePtr)

	var params C.opj_dparameters_t
	C.opj_set_default_decoder_parameters(&params)
	if C.opj_setup_decoder(codec, &params) == 0 {
		return nil, decodeErr.wrap("setup")
	}

	var img *C.opj_image_t
	if C.opj_read_header(stream, codec, &img) == 0 || img == nil {
		return nil, decodeErr.wrap("header")
	}
	defer func() {
		if img != nil {
			C.opj_image_destroy(img)
		}
	}()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if C.opj_decode(codec, stream, img) == 0 {
		return nil, decodeErr.wrap("decode")
	}
	if C.opj_end_decompress(codec, stream) == 0 {
		return nil, decodeErr.wrap("finalize")
	}

	return jpxImageToPixelBuffer(img)
}

func jpxImageToPixelBuffer(img *C.opj_image_t) ([]byte, error) {
	if img == nil {
		return nil, errors.New("nil JPX image")
	}
	width := int(img.x1 - img.x0)
	height := int(img.y1 - img.y0)
	if err := validateNativeImageBounds(width, height); err != nil {
		return nil, err
	}
	pixelCount := int64(width) * int64(height)
	const maxInt = int64(^uint(0) >> 1)
	if pixelCount <= 0 || pixelCount > maxInt {
		return nil, errors.New("JPX image exceeds supported size")
	}

	components, err := jpxReadComponents(img, width, height)
	if err != nil {
		return nil, err
	}
	space := jpxResolveColorSpace(img.color_space, len(components))
	return composeJPXPixelBuffer(components, width, height, space)
}

func jpxReadComponents(img *C.opj_image_t, width, height int) ([]jpxComponent, error) {
	compCount := int(img.numcomps)
	if compCount == 0 {
		return nil, errors.New("JPX image missing components")
	}
	raw := unsafe.Slice(img.comps, compCount)
	components := make([]jpxComponent, compCount)
	for i, comp := range raw {
		w, h := int(comp.w), int(comp.h)
		if w != width || h != height {
			return nil, fmt.Errorf("JPX component %d uses unsupported subsampling (%dx%d vs %dx%d)", i, w, h, width, height)
		}
		count := w * h
		if count == 0 {
			return nil, fmt.Errorf("JPX component %d empty", i)
		}
		src := unsafe.Slice(comp.data, count)
		samples := make([]int32, count)
		for idx := 0; idx < count; idx++ {
			samples[idx] = int32(src[idx])
		}
		components[i] = jpxComponent{
			samples:   samples,
			precision: int(comp.prec),
			signed:    comp.sgnd != 0,
		}
	}
	return components, nil
}

func jpxResolveColorSpace(space C.OPJ_COLOR_SPACE, compCount int) jpxColorSpace {
	switch space {
	case C.OPJ_CLRSPC_GRAY:
		return jpxColorSpaceGray
	case C.OPJ_CLRSPC_SRGB:
		return jpxColorSpaceRGB
	case C.OPJ_CLRSPC_SYCC, C.OPJ_CLRSPC_EYCC:
		return jpxColorSpaceSYCC
	case C.OPJ_CLRSPC_CMYK:
		return jpxColorSpaceCMYK
	default:
		// OpenJPEG leaves color_space unset for some raw J2K
		// codestreams; fall back to the usual convention for the
		// component count.
		if compCount == 1 {
			return jpxColorSpaceGray
		}
		return jpxColorSpaceRGB
	}
}
