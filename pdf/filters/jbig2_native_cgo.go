//go:build cgo

package filters

/*
#cgo pkg-config: jbig2dec
#include <stdint.h>
#include <stdlib.h>
#include <jbig2.h>

void krzpdf_jbig2_on_error(void *data, char *msg, Jbig2Severity severity, uint32_t seg_idx);

static inline void krzpdf_jbig2_error_thunk(void *data, const char *msg, Jbig2Severity severity, uint32_t seg_idx) {
	krzpdf_jbig2_on_error(data, (char*)msg, severity, seg_idx);
}

static inline Jbig2Ctx* krzpdf_jbig2_new_ctx(Jbig2GlobalCtx *global, void *user) {
	return jbig2_ctx_new(NULL, JBIG2_OPTIONS_EMBEDDED, global, krzpdf_jbig2_error_thunk, user);
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

// jbig2DecodeError latches the first error jbig2dec reports through its
// callback (or the first fatal one, whichever wins), since the library
// keeps decoding past non-fatal segment errors.
type jbig2DecodeError struct {
	message  string
	severity C.Jbig2Severity
}

func (e *jbig2DecodeError) record(msg string, severity C.Jbig2Severity) {
	if e.message == "" || (severity == C.JBIG2_SEVERITY_FATAL && e.severity != C.JBIG2_SEVERITY_FATAL) {
		e.message = msg
		e.severity = severity
	}
}

func (e *jbig2DecodeError) wrap(stage string) error {
	if e != nil && e.message != "" {
		return fmt.Errorf("JBIG2 %s decode failed: %s", stage, e.message)
	}
	return fmt.Errorf("JBIG2 %s decode failed", stage)
}

//export krzpdf_jbig2_on_error
func krzpdf_jbig2_on_error(data unsafe.Pointer, msg *C.char, severity C.Jbig2Severity, segIdx C.uint32_t) {
	if data == nil || msg == nil {
		return
	}
	handle := *(*cgo.Handle)(data)
	if state, ok := handle.Value().(*jbig2DecodeError); ok {
		state.record(C.GoString(msg), severity)
	}
}

// decodeJBIG2Native decodes an embedded JBIG2 generic-region or symbol-dict
// stream (optionally sharing a JBIG2Globals segment across images in the
// same PDF) into a 1bpp-per-pixel-packed monochrome bitmap, then expands it
// to NRGBA.
func decodeJBIG2Native(ctx context.Context, pageData, globalData []byte) ([]byte, error) {
	if len(pageData) == 0 {
		return nil, errors.New("JBIG2 stream empty")
	}

	var decodeErr jbig2DecodeError
	handle := cgo.NewHandle(&decodeErr)
	defer handle.Delete()

	handlePtr := C.malloc(C.size_t(unsafe.Sizeof(handle)))
	if handlePtr == nil {
		return nil, errors.New("allocate JBIG2 handle")
	}
	defer C.free(handlePtr)
	*(*cgo.Handle)(handlePtr) = handle

	var globalCtx *C.Jbig2GlobalCtx
	pageCtx := C.krzpdf_jbig2_new_ctx(nil, handlePtr)
	if pageCtx == nil {
		return nil, errors.New("create JBIG2 context")
	}
	defer func() {
		if pageCtx != nil {
			C.jbig2_ctx_free(pageCtx)
		}
		if globalCtx != nil {
			C.jbig2_global_ctx_free(globalCtx)
		}
	}()

	if len(globalData) > 0 {
		if err := jbig2FeedSegment(ctx, pageCtx, &decodeErr, globalData, "global"); err != nil {
			return nil, err
		}
		globalCtx = C.jbig2_make_global_ctx(pageCtx)
		pageCtx = C.krzpdf_jbig2_new_ctx(globalCtx, handlePtr)
		if pageCtx == nil {
			return nil, errors.New("create JBIG2 page context")
		}
	}

	if err := jbig2FeedSegment(ctx, pageCtx, &decodeErr, pageData, "page"); err != nil {
		return nil, err
	}

	if code := C.jbig2_complete_page(pageCtx); code < 0 {
		return nil, decodeErr.wrap("complete page")
	}

	img := C.jbig2_page_out(pageCtx)
	if img == nil {
		return nil, errors.New("no JBIG2 image produced")
	}
	defer C.jbig2_release_page(pageCtx, img)

	width, height, stride := int(img.width), int(img.height), int(img.stride)
	if err := validateNativeImageBounds(width, height); err != nil {
		return nil, err
	}
	if stride <= 0 {
		return nil, errors.New("invalid JBIG2 image dimensions")
	}

	packed := C.GoBytes(unsafe.Pointer(img.data), C.int(stride*height))
	return jbig2MonochromeToNRGBA(width, height, stride, packed)
}

// jbig2FeedSegment pushes one chunk (the optional shared globals, then the
// page-local data) into the decoder, translating a library error into a Go
// one labeled with which chunk failed.
func jbig2FeedSegment(ctx context.Context, cctx *C.Jbig2Ctx, decodeErr *jbig2DecodeError, data []byte, label string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(data) == 0 {
		return fmt.Errorf("JBIG2 %s stream empty", label)
	}
	if C.jbig2_data_in(cctx, (*C.uchar)(unsafe.Pointer(&data[0])), C.size_t(len(data))) < 0 {
		return decodeErr.wrap(label)
	}
	return nil
}
