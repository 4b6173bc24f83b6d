package parser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wudi/kreuzberg-go/pdf/filters"
	"github.com/wudi/kreuzberg-go/pdf/ir/raw"
	"github.com/wudi/kreuzberg-go/pdf/recovery"
	"github.com/wudi/kreuzberg-go/pdf/scanner"
	"github.com/wudi/kreuzberg-go/pdf/security"
	"github.com/wudi/kreuzberg-go/pdf/xref"
)

// Config controls high-level PDF parsing (xref resolution + object loading).
type Config struct {
	Recovery    recovery.Strategy
	XRef        xref.ResolverConfig
	MaxIndirect int
	Security    security.Handler
	Limits      security.Limits
	Cache       Cache
	Password    string
}

// DocumentParser builds a raw.Document using xref tables/streams and the object loader.
type DocumentParser struct {
	cfg Config
}

func NewDocumentParser(cfg Config) *DocumentParser {
	if cfg.MaxIndirect == 0 {
		cfg.MaxIndirect = cfg.Limits.MaxIndirectDepth
		if cfg.MaxIndirect == 0 {
			cfg.MaxIndirect = security.DefaultLimits().MaxIndirectDepth
		}
	}
	return &DocumentParser{cfg: cfg}
}

// SetPassword updates the password for decryption when parsing encrypted PDFs.
func (p *DocumentParser) SetPassword(pwd string) {
	p.cfg.Password = pwd
}

func (p *DocumentParser) Parse(ctx context.Context, r io.ReaderAt) (*raw.Document, error) {
	resolver := xref.NewResolver(p.cfg.XRef)
	table, err := resolver.Resolve(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("resolve xref: %w", err)
	}

	sec, err := p.selectSecurity(ctx, r, table, resolver.Trailer())
	if err != nil {
		return nil, fmt.Errorf("security setup: %w", err)
	}

	builder := &ObjectLoaderBuilder{
		reader:    r,
		xrefTable: table,
		security:  sec,
		maxDepth:  p.cfg.MaxIndirect,
		limits:    p.cfg.Limits,
		cache:     p.cfg.Cache,
		recovery:  p.cfg.Recovery,
	}
	loader, err := builder.Build()
	if err != nil {
		return nil, err
	}

	doc := &raw.Document{
		Objects:           make(map[raw.ObjectRef]raw.Object),
		Trailer:           resolver.Trailer(),
		Version:           detectHeaderVersion(r),
		Permissions:       toRawPermissions(sec.Permissions()),
		MetadataEncrypted: encryptsMetadata(sec),
		Encrypted:         sec.IsEncrypted(),
	}

	// Record the catalog's Collection dictionary (a PDF portfolio), following
	// an indirect reference if needed.
	if doc.Trailer != nil {
		if rootRef, ok := doc.Trailer.Get(raw.NameObj{Val: "Root"}); ok {
			if ref, ok := rootRef.(raw.RefObj); ok {
				// We need to load the Catalog to check for Collection
				// But we haven't loaded objects yet.
				// We can use the loader we just built.
				if catalogObj, err := loader.Load(ctx, ref.R); err == nil {
					if catalog, ok := catalogObj.(*raw.DictObj); ok {
						if collection, ok := catalog.Get(raw.NameObj{Val: "Collection"}); ok {
							if cref, ok := collection.(raw.RefObj); ok {
								if obj, err := loader.Load(ctx, cref.R); err == nil {
									collection = obj
								}
							}
							if cdict, ok := collection.(*raw.DictObj); ok {
								doc.Collection = cdict
							}
						}
					}
				}
			}
		}
	}

	for _, objNum := range table.Objects() {
		if objNum == 0 {
			continue // free head entry
		}
		_, gen, found := table.Lookup(objNum)
		if !found {
			continue
		}
		ref := raw.ObjectRef{Num: objNum, Gen: gen}
		obj, err := loader.Load(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("load object %d: %w", objNum, err)
		}
		doc.Objects[ref] = obj
	}

	if doc.Trailer != nil {
		p.populateMetadata(ctx, loader, doc)
	}

	if resolver.Linearized() {
		doc.Linearized = true
		p.parseLinearization(ctx, r, doc, loader)
	}

	return doc, nil
}

func (p *DocumentParser) selectSecurity(ctx context.Context, r io.ReaderAt, table xref.Table, trailer raw.Dictionary) (security.Handler, error) {
	if p.cfg.Security != nil {
		return p.cfg.Security, nil
	}
	trailerDict, _ := trailer.(*raw.DictObj)
	if trailerDict == nil {
		return security.NoopHandler(), nil
	}
	encObj, ok := trailerDict.Get(raw.NameObj{Val: "Encrypt"})
	if !ok {
		return security.NoopHandler(), nil
	}
	var encDict *raw.DictObj
	switch v := encObj.(type) {
	case *raw.DictObj:
		encDict = v
	case raw.RefObj:
		loader, err := (&ObjectLoaderBuilder{
			reader:    r,
			xrefTable: table,
			security:  security.NoopHandler(),
			maxDepth:  p.cfg.MaxIndirect,
			limits:    p.cfg.Limits,
			cache:     p.cfg.Cache,
			recovery:  p.cfg.Recovery,
		}).Build()
		if err != nil {
			return nil, err
		}
		obj, err := loader.Load(ctx, v.R)
		if err == nil {
			encDict, _ = obj.(*raw.DictObj)
		}
	}
	if encDict == nil {
		return security.NoopHandler(), nil
	}
	fileID := fileIDFromTrailer(trailerDict)
	handler, err := (&security.HandlerBuilder{}).WithEncryptDict(encDict).WithTrailer(trailerDict).WithFileID(fileID).Build()
	if err != nil {
		return nil, err
	}
	if err := handler.Authenticate(p.cfg.Password); err != nil {
		return nil, err
	}
	return handler, nil
}

func fileIDFromTrailer(trailer *raw.DictObj) []byte {
	if trailer == nil {
		return nil
	}
	if idObj, ok := trailer.Get(raw.NameObj{Val: "ID"}); ok {
		if arr, ok := idObj.(*raw.ArrayObj); ok && arr.Len() > 0 {
			if s, ok := arr.Items[0].(raw.StringObj); ok {
				return s.Value()
			}
			if hx, ok := arr.Items[0].(raw.HexStringObj); ok {
				return hx.Value()
			}
		}
	}
	return nil
}

func (p *DocumentParser) populateMetadata(ctx context.Context, loader ObjectLoader, doc *raw.Document) {
	infoObj, ok := doc.Trailer.Get(raw.NameObj{Val: "Info"})
	if !ok {
		return
	}
	ref, ok := infoObj.(raw.RefObj)
	if !ok {
		return
	}
	info, err := loader.Load(ctx, ref.R)
	if err != nil {
		return
	}
	dict, ok := info.(*raw.DictObj)
	if !ok {
		return
	}
	md := raw.DocumentMetadata{}
	if v, ok := stringValue(dict, "Title"); ok {
		md.Title = v
	}
	if v, ok := stringValue(dict, "Author"); ok {
		md.Author = v
	}
	if v, ok := stringValue(dict, "Creator"); ok {
		md.Creator = v
	}
	if v, ok := stringValue(dict, "Producer"); ok {
		md.Producer = v
	}
	if v, ok := stringValue(dict, "Subject"); ok {
		md.Subject = v
	}
	if v, ok := stringValue(dict, "Keywords"); ok {
		md.Keywords = strings.Split(v, ",")
	}
	doc.Metadata = md
}

func stringValue(dict *raw.DictObj, key string) (string, bool) {
	obj, ok := dict.Get(raw.NameObj{Val: key})
	if !ok {
		return "", false
	}
	str, ok := obj.(raw.StringObj)
	if !ok {
		return "", false
	}
	return string(str.Value()), true
}

func encryptsMetadata(h security.Handler) bool {
	if h == nil {
		return false
	}
	return h.EncryptMetadata()
}

func toRawPermissions(p security.Permissions) raw.Permissions {
	return raw.Permissions{
		Print:             p.Print,
		Modify:            p.Modify,
		Copy:              p.Copy,
		ModifyAnnotations: p.ModifyAnnotations,
		FillForms:         p.FillForms,
		ExtractAccessible: p.ExtractAccessible,
		Assemble:          p.Assemble,
		PrintHighQuality:  p.PrintHighQuality,
	}
}

func detectHeaderVersion(r io.ReaderAt) string {
	buf := make([]byte, 64)
	n, err := r.ReadAt(buf, 0)
	if err != nil && !errors.Is(err, io.EOF) {
		return ""
	}
	line := string(buf[:n])
	for _, sep := range []string{"\r\n", "\n", "\r"} {
		if idx := strings.Index(line, sep); idx >= 0 {
			line = line[:idx]
			break
		}
	}
	if strings.HasPrefix(line, "%PDF-") && len(line) >= 8 {
		return strings.TrimSpace(line[5:])
	}
	return ""
}

// parseLinearization looks for the linearization dictionary that a
// fast-web-view PDF places in its very first object, then follows its /H
// (hint stream) entry to decode the page-offset hint table.
func (p *DocumentParser) parseLinearization(ctx context.Context, r io.ReaderAt, doc *raw.Document, loader ObjectLoader) {
	s := scanner.New(r, scanner.Config{Recovery: p.cfg.Recovery})

	var linDict *raw.DictObj
	var npages int

	tr := newTokenReader(s)

	// The linearization dictionary is always the first object in the file.
	for {
		tok, err := s.Next()
		if err != nil {
			return
		}
		if tok.Type == scanner.TokenNumber {
			// Found potential object number
			// We assume the first object is the linearization dict
			// <num> <gen> obj
			tok2, err := s.Next()
			if err != nil {
				return
			}
			if tok2.Type == scanner.TokenNumber {
				tok3, err := s.Next()
				if err != nil {
					return
				}
				if tok3.Type == scanner.TokenKeyword && tok3.Str == "obj" {
					// Parse object
					obj, err := parseObject(tr, p.cfg.Recovery, int(tok.Int), int(tok2.Int))
					if err != nil {
						return
					}

					if dict, ok := obj.(*raw.DictObj); ok {
						if _, ok := dict.Get(raw.NameObj{Val: "Linearized"}); ok {
							linDict = dict
						}
					}
					break // Found first object, stop
				}
			}
		}
	}

	if linDict == nil {
		return
	}

	// Get N (Number of pages)
	if nVal, ok := linDict.Get(raw.NameObj{Val: "N"}); ok {
		npages = int(toInt64(nVal))
	}

	// Get H (Hint stream offset)
	hVal, ok := linDict.Get(raw.NameObj{Val: "H"})
	if !ok {
		return
	}
	hArr, ok := hVal.(*raw.ArrayObj)
	if !ok || hArr.Len() < 1 {
		return
	}

	hOffsetObj, _ := hArr.Get(0)
	hOffset := toInt64(hOffsetObj)

	// Parse Hint Stream at hOffset
	s2 := scanner.New(r, scanner.Config{Recovery: p.cfg.Recovery})
	if err := s2.Seek(hOffset); err != nil {
		return
	}
	tr2 := newTokenReader(s2)

	// Expect <num> <gen> obj
	tokNum, err := s2.Next()
	if err != nil {
		return
	}
	tokGen, err := s2.Next()
	if err != nil {
		return
	}
	tokObj, err := s2.Next()
	if err != nil || tokObj.Str != "obj" {
		return
	}

	// Parse stream object
	// We need to handle stream length.
	// We can reuse parseObject but we need to handle the stream data reading which relies on Length.
	// parseObject in loader.go handles stream if we provide a length hint or if it can resolve it.
	// But here we don't have the loader's resolve capability wired into tr2.
	// We have to do it manually.

	obj, err := parseObject(tr2, p.cfg.Recovery, int(tokNum.Int), int(tokGen.Int))
	if err != nil {
		return
	}

	dict, ok := obj.(*raw.DictObj)
	if !ok {
		return
	}

	// Resolve Length
	var length int64
	if lVal, ok := dict.Get(raw.NameObj{Val: "Length"}); ok {
		switch v := lVal.(type) {
		case raw.NumberObj:
			length = v.Int()
		case raw.RefObj:
			// Load indirect length
			lObj, err := loader.Load(ctx, v.R)
			if err == nil {
				if n, ok := lObj.(raw.NumberObj); ok {
					length = n.Int()
				}
			}
		}
	}

	if length <= 0 {
		return
	}

	// parseObject stopped at the dict's closing ">>"; the scanner's next
	// token fuses the "stream" keyword with its payload into one
	// TokenStream, same as the object loader's own stream handling in
	// loader.go, as long as the length hint is set first.
	tr2.setStreamLengthHint(length)
	tokStreamData, err := tr2.next()
	if err != nil || tokStreamData.Type != scanner.TokenStream {
		return
	}
	data := tokStreamData.Bytes

	filterNames, filterParams := filtersForStream(dict)
	if len(filterNames) > 0 {
		pipeline := filters.NewPipeline([]filters.Decoder{
			filters.NewFlateDecoder(),
			filters.NewLZWDecoder(),
			filters.NewASCII85Decoder(),
			filters.NewASCIIHexDecoder(),
			filters.NewRunLengthDecoder(),
		}, filters.Limits{
			MaxDecompressedSize: p.cfg.Limits.MaxDecompressedSize,
			MaxDecodeTime:       p.cfg.Limits.MaxDecodeTime,
		})

		decoded, err := pipeline.Decode(ctx, data, filterNames, filterParams)
		if err != nil {
			return
		}
		data = decoded
	}

	// Parse Hint Table
	ht, err := ParseHintStream(data, dict, npages)
	if err != nil {
		return
	}

	doc.HintTable = ht
}
