package xref

import (
	"context"
	"errors"
	"io"

	"github.com/wudi/kreuzberg-go/pdf/ir/raw"
	"github.com/wudi/kreuzberg-go/pdf/scanner"
)

// repair scans the entire file for "<num> <gen> obj" headers and "trailer"
// dictionaries, reconstructing a classic table when the real xref section
// is missing, truncated, or points at garbage. It's the last resort the
// resolver falls back to when a recovery.Strategy says to keep going.
func repair(ctx context.Context, r io.ReaderAt) (Table, raw.Dictionary, error) {
	s := scanner.New(r, scanner.Config{})
	entries := make(map[int]xrefEntry)
	var lastTrailer *raw.DictObj

	for {
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		default:
		}

		tok, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			continue // skip invalid tokens during the repair scan
		}

		switch {
		case tok.Type == scanner.TokenNumber && tok.IsInt:
			objNum := int(tok.Int)
			objPos := tok.Pos

			tokGen, err := s.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				continue
			}
			if tokGen.Type != scanner.TokenNumber || !tokGen.IsInt {
				continue
			}
			gen := int(tokGen.Int)

			tokObj, err := s.Next()
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				continue
			}
			if tokObj.Type == scanner.TokenKeyword && tokObj.Str == "obj" {
				entries[objNum] = xrefEntry{offset: objPos, gen: gen}
				continue
			}
			// No match: tokGen might itself start the next "n g obj" triple,
			// so rewind to it instead of dropping it on the floor.
			if err := s.Seek(tokGen.Pos); err != nil {
				return nil, nil, err
			}

		case tok.Type == scanner.TokenKeyword && tok.Str == "trailer":
			tr := &xrefTokenReader{s: s}
			obj, err := parseObject(tr)
			if err == nil {
				if dict, ok := obj.(*raw.DictObj); ok {
					lastTrailer = dict
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil, nil, errors.New("repair failed: no objects found")
	}

	if lastTrailer == nil {
		lastTrailer = raw.Dict()
		lastTrailer.Set(raw.NameObj{Val: "Size"}, raw.NumberObj{I: int64(len(entries)), IsInt: true})
	}

	return &classicTable{entries: entries}, lastTrailer, nil
}
