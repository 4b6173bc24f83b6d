package core

import (
	"context"
	"strings"
	"sync"
)

// Extractor is the common contract every format extractor implements (spec
// §4.2). Implementers may implement one form natively and derive others
// with the AsyncFromSync / PathFromBytes helpers below.
type Extractor interface {
	// SupportedMimeTypes returns the MIME types (or MIME prefixes, e.g.
	// "application/vnd.") this extractor handles.
	SupportedMimeTypes() []string

	ExtractBytesSync(data []byte, mimeType string, cfg ExtractionConfig) (ExtractionResult, error)
	ExtractPathSync(path string, mimeType string, cfg ExtractionConfig) (ExtractionResult, error)
	ExtractBytesAsync(ctx context.Context, data []byte, mimeType string, cfg ExtractionConfig) (ExtractionResult, error)
	ExtractPathAsync(ctx context.Context, path string, mimeType string, cfg ExtractionConfig) (ExtractionResult, error)
}

// Constructor builds an Extractor instance. The registry stores
// constructors, not instances, so that an extractor can capture
// per-registration state (spec §4.1: "dispatch table mapping MIME types to
// extractor constructors").
type Constructor func() Extractor

type cacheKey struct {
	mime      string
	configPtr *ExtractionConfig
}

// Registry implements the §4.1 MIME dispatch table: an ordered
// user-registered list tried before an ordered built-in default list,
// memoized by (mime, config identity) and invalidated on mutation.
type Registry struct {
	mu         sync.Mutex
	registered []Constructor
	defaults   []Constructor
	cache      map[cacheKey]Extractor
}

// NewRegistry returns a Registry whose default list is defaultConstructors,
// tried in the given order after any user-registered extractors.
func NewRegistry(defaultConstructors ...Constructor) *Registry {
	return &Registry{
		defaults: append([]Constructor(nil), defaultConstructors...),
		cache:    make(map[cacheKey]Extractor),
	}
}

// Add appends constructor to the registered (highest-priority) list and
// invalidates the lookup cache.
func (r *Registry) Add(constructor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registered = append(r.registered, constructor)
	r.invalidateLocked()
}

// Remove drops every registered (non-default) constructor whose built
// extractor satisfies matches, and invalidates the lookup cache. Go has no
// identity comparison for functions, so removal is by predicate rather than
// by constructor value. It is a silent no-op when nothing matches.
func (r *Registry) Remove(matches func(Extractor) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.registered[:0:0]
	for _, c := range r.registered {
		if matches(c()) {
			continue
		}
		kept = append(kept, c)
	}
	r.registered = kept
	r.invalidateLocked()
}

func (r *Registry) invalidateLocked() {
	r.cache = make(map[cacheKey]Extractor)
}

// Get returns the first extractor (registered, then default, in insertion
// order) whose SupportedMimeTypes contains mime exactly or as a prefix
// match. Lookups are memoized per (mime, &cfg); mutating cfg after a Get
// for the same pointer will not be reflected without a registry mutation
// to invalidate the cache. Returns (nil, false) on no match, never an
// error, per spec §4.1's "never raises" failure semantics.
func (r *Registry) Get(mime string, cfg *ExtractionConfig) (Extractor, bool) {
	mime = NormalizeMIMEType(mime)
	key := cacheKey{mime: mime, configPtr: cfg}

	r.mu.Lock()
	if cached, ok := r.cache[key]; ok {
		r.mu.Unlock()
		return cached, cached != nil
	}
	registered := append([]Constructor(nil), r.registered...)
	defaults := append([]Constructor(nil), r.defaults...)
	r.mu.Unlock()

	for _, list := range [][]Constructor{registered, defaults} {
		for _, construct := range list {
			ex := construct()
			if supportsMime(ex, mime) {
				r.mu.Lock()
				r.cache[key] = ex
				r.mu.Unlock()
				return ex, true
			}
		}
	}

	r.mu.Lock()
	r.cache[key] = nil
	r.mu.Unlock()
	return nil, false
}

func supportsMime(ex Extractor, mime string) bool {
	for _, supported := range ex.SupportedMimeTypes() {
		supported = NormalizeMIMEType(supported)
		if mime == supported || strings.HasPrefix(mime, supported) {
			return true
		}
	}
	return false
}

// BaseExtractor holds a single native ExtractBytes implementation. It has
// no methods of its own; the sync/async and bytes/path derivations are the
// standalone PathFromBytes and AsyncFromSync helpers.
type BaseExtractor struct {
	// ExtractBytes is the one native implementation a concrete extractor
	// must supply.
	ExtractBytes func(data []byte, mimeType string, cfg ExtractionConfig) (ExtractionResult, error)
}

// PathFromBytes derives ExtractPathSync from an ExtractBytes implementation
// by reading the whole file into memory first (spec §4.2: "bytes→path by
// spilling to a temp file" covers the inverse; extractors whose native form
// is bytes-based instead read the path eagerly here).
func PathFromBytes(extractBytes func([]byte, string, ExtractionConfig) (ExtractionResult, error), readFile func(string) ([]byte, error)) func(string, string, ExtractionConfig) (ExtractionResult, error) {
	return func(path string, mimeType string, cfg ExtractionConfig) (ExtractionResult, error) {
		data, err := readFile(path)
		if err != nil {
			return ExtractionResult{}, NewParsingError("reading input file", NewErrorContext("extract_path_sync", WithFile(path), WithCause(err)))
		}
		return extractBytes(data, mimeType, cfg)
	}
}

// AsyncFromSync derives an async method from a sync one by running it on a
// new goroutine. It returns ctx.Err() immediately if ctx is already done,
// and returns ctx.Err() as soon as ctx is cancelled while waiting; the sync
// call itself is not interrupted and runs to completion in the background.
func AsyncFromSync(ctx context.Context, sync func() (ExtractionResult, error)) (ExtractionResult, error) {
	if err := ctx.Err(); err != nil {
		return ExtractionResult{}, err
	}
	type outcome struct {
		result ExtractionResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := sync()
		done <- outcome{result, err}
	}()
	select {
	case <-ctx.Done():
		return ExtractionResult{}, ctx.Err()
	case out := <-done:
		return out.result, out.err
	}
}
