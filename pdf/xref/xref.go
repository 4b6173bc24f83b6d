// Package xref locates a PDF's cross-reference information — the classic
// "xref" table, a compressed cross-reference stream, or (when both are
// missing or unreadable) a full-file object scan — and exposes it as a
// simple object-number-to-byte-offset lookup the object loader can index.
package xref

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/wudi/kreuzberg-go/pdf/filters"
	"github.com/wudi/kreuzberg-go/pdf/ir/raw"
	"github.com/wudi/kreuzberg-go/pdf/recovery"
	"github.com/wudi/kreuzberg-go/pdf/scanner"
)

// Table holds object offsets for a classic xref table or an xref stream.
type Table interface {
	Lookup(objNum int) (offset int64, gen int, found bool)
	ObjStream(objNum int) (streamObj int, index int, ok bool)
	Objects() []int
	Type() string
}

// Resolver locates and parses xref information in a PDF.
type Resolver interface {
	Resolve(ctx context.Context, r io.ReaderAt) (Table, error)
	// Trailer returns the trailer dictionary found during the most recent
	// Resolve call: either the classic "trailer" dictionary, or the leading
	// cross-reference stream's own dictionary, which doubles as one.
	Trailer() raw.Dictionary
	Linearized() bool
	Incremental() []Table
}

type ResolverConfig struct {
	MaxXRefDepth int
	Recovery     recovery.Strategy
}

// NewResolver returns a resolver that parses a classic xref table or xref
// stream, falling back to a whole-file object scan (see repair.go) when
// cfg.Recovery is set and both of those fail.
func NewResolver(cfg ResolverConfig) Resolver {
	return &tableResolver{cfg: cfg}
}

// tableResolver is the default Resolver. It keeps just enough state across
// a single Resolve call to answer Trailer()/Linearized() afterward.
type tableResolver struct {
	cfg        ResolverConfig
	trailer    raw.Dictionary
	linearized bool
}

func (t *tableResolver) Resolve(ctx context.Context, r io.ReaderAt) (Table, error) {
	tbl, trailer, err := t.resolveDirect(ctx, r)
	if err != nil {
		if t.cfg.Recovery == nil {
			return nil, err
		}
		if action := t.cfg.Recovery.OnError(ctx, err, recovery.Location{Component: "xref"}); action == recovery.ActionFail {
			return nil, err
		}
		tbl, trailer, err = repair(ctx, r)
		if err != nil {
			return nil, err
		}
	}
	t.trailer = trailer
	t.linearized = detectLinearized(r)
	return tbl, nil
}

func (t *tableResolver) Trailer() raw.Dictionary { return t.trailer }
func (t *tableResolver) Linearized() bool        { return t.linearized }
func (t *tableResolver) Incremental() []Table    { return nil }

// detectLinearized checks the first object in the file for the
// /Linearized marker fast-web-view PDFs put there, without running the
// full object parser: a plain substring scan over the header region is
// how a linearization check pays for itself on files that aren't.
func detectLinearized(r io.ReaderAt) bool {
	buf := make([]byte, 2048)
	n, err := r.ReadAt(buf, 0)
	if n == 0 && err != nil {
		return false
	}
	return bytes.Contains(buf[:n], []byte("/Linearized"))
}

// resolveDirect is the non-recovering path: follow "startxref" to either a
// classic table or a cross-reference stream.
func (t *tableResolver) resolveDirect(ctx context.Context, r io.ReaderAt) (Table, raw.Dictionary, error) {
	data := readAll(r)

	startxref := bytes.LastIndex(data, []byte("startxref"))
	if startxref < 0 {
		return nil, nil, errors.New("startxref not found")
	}
	rest := data[startxref+len("startxref"):]
	lines := bufio.NewScanner(bytes.NewReader(rest))
	var offset int64
	for lines.Scan() {
		text := strings.TrimSpace(lines.Text())
		if text == "" {
			continue
		}
		val, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("parse startxref: %w", err)
		}
		offset = val
		break
	}

	if offset <= 0 || offset >= int64(len(data)) {
		return nil, nil, fmt.Errorf("xref offset out of range: %d", offset)
	}

	sectionData := data[offset:]
	sc := bufio.NewScanner(bytes.NewReader(sectionData))
	if !sc.Scan() || strings.TrimSpace(sc.Text()) != "xref" {
		st, err := parseXRefStream(ctx, data, offset)
		if err != nil {
			return nil, nil, fmt.Errorf("xref keyword not found at offset: %w", err)
		}
		return st, st.trailer, nil
	}
	return parseClassicTable(sc, data)
}

// parseClassicTable reads one or more "N count" subsection headers followed
// by fixed-width entry lines, then parses the dictionary after "trailer".
func parseClassicTable(sc *bufio.Scanner, data []byte) (Table, raw.Dictionary, error) {
	entries := make(map[int]xrefEntry)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "trailer") {
			break
		}
		parts := strings.Fields(line)
		if len(parts) != 2 {
			return nil, nil, fmt.Errorf("invalid xref subsection header: %q", line)
		}
		startObj, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, nil, fmt.Errorf("parse xref start: %w", err)
		}
		count, err := strconv.Atoi(parts[1])
		if err != nil {
			return nil, nil, fmt.Errorf("parse xref count: %w", err)
		}

		for i := 0; i < count; i++ {
			if !sc.Scan() {
				return nil, nil, errors.New("unexpected end of xref section")
			}
			entryLine := strings.TrimSpace(sc.Text())
			fields := strings.Fields(entryLine)
			if len(fields) < 3 {
				return nil, nil, fmt.Errorf("invalid xref entry: %q", entryLine)
			}
			off, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("parse xref offset: %w", err)
			}
			gen, err := strconv.Atoi(fields[1])
			if err != nil {
				return nil, nil, fmt.Errorf("parse xref gen: %w", err)
			}
			if len(fields[2]) == 0 || fields[2][0] != 'n' {
				continue // free entry
			}
			entries[startObj+i] = xrefEntry{offset: off, gen: gen}
		}
	}

	trailer := parseTrailerDict(data)
	return &classicTable{entries: entries}, trailer, nil
}

// parseTrailerDict re-scans from the last "trailer" keyword in the file to
// pull out the dictionary that follows it, using the same minimal object
// parser the xref-stream path uses for its header dictionary.
func parseTrailerDict(data []byte) raw.Dictionary {
	idx := bytes.LastIndex(data, []byte("trailer"))
	if idx < 0 {
		return nil
	}
	s := scanner.New(bytes.NewReader(data[idx+len("trailer"):]), scanner.Config{})
	tr := &xrefTokenReader{s: s}
	obj, err := parseObject(tr)
	if err != nil {
		return nil
	}
	dict, ok := obj.(*raw.DictObj)
	if !ok {
		return nil
	}
	return dict
}

type xrefEntry struct {
	offset int64
	gen    int
}

// classicTable backs a plain (non-stream) xref section.
type classicTable struct {
	entries map[int]xrefEntry
}

func (c *classicTable) Lookup(objNum int) (int64, int, bool) {
	e, ok := c.entries[objNum]
	if !ok {
		return 0, 0, false
	}
	return e.offset, e.gen, true
}

func (c *classicTable) Objects() []int {
	out := make([]int, 0, len(c.entries))
	for k := range c.entries {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (c *classicTable) Type() string                   { return "table" }
func (c *classicTable) ObjStream(int) (int, int, bool) { return 0, 0, false }

// objStreamRef records where an object compressed inside an object stream
// (xref type 2 entry) actually lives.
type objStreamRef struct {
	objstm int
	idx    int
}

// objStreamTable backs a cross-reference stream, which can point directly
// at an object's byte offset (type 1) or at the object stream holding it
// (type 2).
type objStreamTable struct {
	offsets   map[int]xrefEntry
	objStream map[int]objStreamRef
	trailer   raw.Dictionary
}

func (s *objStreamTable) Lookup(objNum int) (int64, int, bool) {
	if e, ok := s.offsets[objNum]; ok {
		return e.offset, e.gen, true
	}
	return 0, 0, false
}

func (s *objStreamTable) ObjStream(objNum int) (int, int, bool) {
	if e, ok := s.objStream[objNum]; ok {
		return e.objstm, e.idx, true
	}
	return 0, 0, false
}

func (s *objStreamTable) Objects() []int {
	seen := make(map[int]struct{}, len(s.offsets)+len(s.objStream))
	for k := range s.offsets {
		seen[k] = struct{}{}
	}
	for k := range s.objStream {
		seen[k] = struct{}{}
	}
	out := make([]int, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}

func (s *objStreamTable) Type() string { return "xref-stream" }

// parseXRefStream decodes a cross-reference stream at the given offset:
// "<num> <gen> obj <<dict>> stream...endstream", where the dictionary's /W
// array gives the byte width of the three fixed-size fields packed into
// every entry row, and the dictionary itself doubles as the trailer.
func parseXRefStream(ctx context.Context, data []byte, offset int64) (*objStreamTable, error) {
	s := scanner.New(bytes.NewReader(data), scanner.Config{})
	if err := s.Seek(offset); err != nil {
		return nil, err
	}
	tokObjNum, err := s.Next()
	if err != nil {
		return nil, err
	}
	if tokObjNum.Type != scanner.TokenNumber {
		return nil, errors.New("xref stream missing object number")
	}
	objNum := int(tokObjNum.Int)
	tokGen, err := s.Next()
	if err != nil {
		return nil, err
	}
	gen := int(tokGen.Int)
	tokKW, err := s.Next()
	if err != nil || tokKW.Type != scanner.TokenKeyword || tokKW.Str != "obj" {
		return nil, errors.New("xref stream missing obj keyword")
	}

	tr := &xrefTokenReader{s: s}
	obj, err := parseObject(tr)
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(*raw.DictObj)
	if !ok {
		return nil, errors.New("xref stream must start with dictionary")
	}
	streamTok, err := tr.next()
	if err != nil || streamTok.Type != scanner.TokenStream {
		return nil, errors.New("xref stream payload missing")
	}
	streamData := streamTok.Bytes
	if fTok, ok := dict.Get(raw.NameObj{Val: "Filter"}); ok {
		filterNames, filterParams := filtersFromDict(fTok, dict)
		pipeline := filters.NewPipeline([]filters.Decoder{
			filters.NewFlateDecoder(),
			filters.NewASCII85Decoder(),
			filters.NewASCIIHexDecoder(),
		}, filters.Limits{})
		decoded, err := pipeline.Decode(ctx, streamData, filterNames, filterParams)
		if err != nil {
			return nil, fmt.Errorf("decode xref stream: %w", err)
		}
		streamData = decoded
	}

	w, err := widthsFromDict(dict)
	if err != nil {
		return nil, err
	}
	sizeObj, ok := dict.Get(raw.NameObj{Val: "Size"})
	if !ok {
		return nil, errors.New("xref stream missing Size")
	}
	size := toInt64(sizeObj)
	spans := []int{0, int(size)}
	if idxObj, ok := dict.Get(raw.NameObj{Val: "Index"}); ok {
		if idx := intArrayFromObject(idxObj); len(idx) > 0 && len(idx)%2 == 0 {
			spans = idx
		}
	}

	tbl := &objStreamTable{
		offsets:   make(map[int]xrefEntry),
		objStream: make(map[int]objStreamRef),
		trailer:   dict,
	}
	entryWidth := w[0] + w[1] + w[2]
	cursor := 0
	for i := 0; i < len(spans); i += 2 {
		startObj, count := spans[i], spans[i+1]
		for j := 0; j < count; j++ {
			if cursor+entryWidth > len(streamData) {
				return nil, errors.New("xref stream truncated")
			}
			row := streamData[cursor : cursor+entryWidth]
			cursor += entryWidth
			entryType := bigEndianUint(row[:w[0]])
			f1 := bigEndianUint(row[w[0] : w[0]+w[1]])
			f2 := bigEndianUint(row[w[0]+w[1]:])
			num := startObj + j
			switch entryType {
			case 0: // free
			case 1:
				tbl.offsets[num] = xrefEntry{offset: int64(f1), gen: f2}
			case 2:
				tbl.objStream[num] = objStreamRef{objstm: f1, idx: f2}
			}
		}
	}
	// The xref stream is itself an indirect object; record its own offset.
	tbl.offsets[objNum] = xrefEntry{offset: offset, gen: gen}
	return tbl, nil
}

func bigEndianUint(b []byte) int {
	val := 0
	for _, c := range b {
		val = (val << 8) + int(c)
	}
	return val
}

// xrefTokenReader is a one-token-of-pushback wrapper the minimal object
// parser below shares between the xref-stream header and the trailer
// dictionary, and that repair.go reuses for its own trailer scan.
type xrefTokenReader struct {
	s   scanner.Scanner
	buf []scanner.Token
}

func (r *xrefTokenReader) next() (scanner.Token, error) {
	if l := len(r.buf); l > 0 {
		t := r.buf[l-1]
		r.buf = r.buf[:l-1]
		return t, nil
	}
	return r.s.Next()
}

func (r *xrefTokenReader) unread(t scanner.Token) { r.buf = append(r.buf, t) }

// parseObject is a small, self-contained object parser covering the subset
// of raw PDF syntax a dictionary (trailer or xref-stream header) can
// contain. It deliberately doesn't depend on the fuller parser in
// pdf/parser, keeping this package's failure modes independent of it.
func parseObject(tr *xrefTokenReader) (raw.Object, error) {
	tok, err := tr.next()
	if err != nil {
		return nil, err
	}
	switch tok.Type {
	case scanner.TokenName:
		return raw.NameObj{Val: tok.Str}, nil
	case scanner.TokenNumber:
		if tok.IsInt {
			return raw.NumberObj{I: tok.Int, IsInt: true}, nil
		}
		return raw.NumberObj{F: tok.Float, IsInt: false}, nil
	case scanner.TokenBoolean:
		return raw.BoolObj{V: tok.Bool}, nil
	case scanner.TokenNull:
		return raw.NullObj{}, nil
	case scanner.TokenString:
		return raw.StringObj{Bytes: tok.Bytes}, nil
	case scanner.TokenArray:
		arr := raw.NewArray()
		for {
			t, err := tr.next()
			if err != nil {
				return nil, err
			}
			if t.Type == scanner.TokenKeyword && t.Str == "]" {
				break
			}
			tr.unread(t)
			item, err := parseObject(tr)
			if err != nil {
				return nil, err
			}
			arr.Append(item)
		}
		return arr, nil
	case scanner.TokenDict:
		d := raw.Dict()
		for {
			t, err := tr.next()
			if err != nil {
				return nil, err
			}
			if t.Type == scanner.TokenKeyword && t.Str == ">>" {
				break
			}
			if t.Type != scanner.TokenName {
				return nil, errors.New("expected name in dict")
			}
			key := raw.NameObj{Val: t.Str}
			val, err := parseObject(tr)
			if err != nil {
				return nil, err
			}
			d.Set(key, val)
		}
		return d, nil
	case scanner.TokenRef:
		return raw.RefObj{R: raw.ObjectRef{Num: int(tok.Int), Gen: tok.Gen}}, nil
	}
	return nil, fmt.Errorf("unexpected token %v", tok.Type)
}

func intArrayFromObject(obj raw.Object) []int {
	arr, ok := obj.(*raw.ArrayObj)
	if !ok {
		return nil
	}
	out := make([]int, 0, arr.Len())
	for _, it := range arr.Items {
		if n, ok := it.(raw.NumberObj); ok {
			out = append(out, int(n.Int()))
		}
	}
	return out
}

func toInt64(obj raw.Object) int64 {
	if n, ok := obj.(raw.NumberObj); ok {
		return n.Int()
	}
	return 0
}

func widthsFromDict(dict *raw.DictObj) ([3]int, error) {
	var w [3]int
	obj, ok := dict.Get(raw.NameObj{Val: "W"})
	if !ok {
		return w, errors.New("xref stream missing W")
	}
	arr := intArrayFromObject(obj)
	if len(arr) != 3 {
		return w, errors.New("xref stream W must have 3 integers")
	}
	copy(w[:], arr)
	return w, nil
}

func filtersFromDict(filterObj raw.Object, dict *raw.DictObj) ([]string, []raw.Dictionary) {
	var names []string
	var params []raw.Dictionary
	switch v := filterObj.(type) {
	case raw.NameObj:
		names = append(names, v.Val)
	case *raw.ArrayObj:
		for _, it := range v.Items {
			if n, ok := it.(raw.NameObj); ok {
				names = append(names, n.Val)
			}
		}
	}
	if dp, ok := dict.Get(raw.NameObj{Val: "DecodeParms"}); ok {
		switch p := dp.(type) {
		case *raw.DictObj:
			params = append(params, p)
		case *raw.ArrayObj:
			for _, it := range p.Items {
				if d, ok := it.(*raw.DictObj); ok {
					params = append(params, d)
				}
			}
		}
	}
	return names, params
}

// readAll drains an io.ReaderAt into memory in fixed chunks; xref parsing
// needs random access (seeking to "startxref", scanning backward for
// "trailer") that a streaming Reader can't offer cheaply.
func readAll(r io.ReaderAt) []byte {
	var buf bytes.Buffer
	const chunk = int64(32 * 1024)
	for off := int64(0); ; off += chunk {
		tmp := make([]byte, chunk)
		n, err := r.ReadAt(tmp, off)
		if n > 0 {
			buf.Write(tmp[:n])
		}
		if err != nil {
			break
		}
		if int64(n) < chunk {
			break
		}
	}
	return buf.Bytes()
}
