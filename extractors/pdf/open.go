package pdf

import (
	"context"
	"os"
	"time"

	"github.com/wudi/kreuzberg-go/core"
	"github.com/wudi/kreuzberg-go/pdf/ir/decoded"
	"github.com/wudi/kreuzberg-go/pdf/parser"
)

const maxOpenAttempts = 3

// openDocument tries each candidate password in order, falling back to a
// single empty-password attempt if every candidate fails, and propagates
// the last error if nothing works. Each attempt is itself retried up to
// maxOpenAttempts times with a 0.5s-times-attempt backoff when the failure
// looks transient; non-transient failures (bad password, malformed
// structure) are not retried.
func openDocument(path string, passwords []string) (*decoded.DecodedDocument, error) {
	candidates := append(append([]string(nil), passwords...), "")
	attempted := make(map[string]bool, len(candidates))
	var lastErr error

	for _, pwd := range candidates {
		if attempted[pwd] {
			continue
		}
		attempted[pwd] = true
		dec, err := openWithRetry(path, pwd)
		if err == nil {
			return dec, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func openWithRetry(path, password string) (*decoded.DecodedDocument, error) {
	var lastErr error
	for attempt := 1; attempt <= maxOpenAttempts; attempt++ {
		dec, err := openOnce(path, password)
		if err == nil {
			return dec, nil
		}
		lastErr = err
		if !core.IsTransient(err) {
			return nil, err
		}
		time.Sleep(time.Duration(float64(attempt)*0.5*float64(time.Second)))
	}
	return nil, lastErr
}

func openOnce(path, password string) (*decoded.DecodedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rawParser := parser.NewDocumentParser(parser.Config{Password: password})
	rawDoc, err := rawParser.Parse(context.Background(), f)
	if err != nil {
		return nil, err
	}
	decoder := decoded.NewDecoder(newFilterPipeline())
	return decoder.Decode(context.Background(), rawDoc)
}
