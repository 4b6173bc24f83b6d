package ocr

import (
	"context"
	"runtime"
	"sync"

	"github.com/wudi/kreuzberg-go/core"
)

var (
	mu            sync.RWMutex
	defaultEngine Engine = noopEngine{}
	registered    = map[string]Engine{}
)

// DefaultEngine returns the process-wide default OCR engine. Absent any
// registration, it is a no-op engine so the library never requires a
// Tesseract install just to be imported.
func DefaultEngine() Engine {
	mu.RLock()
	defer mu.RUnlock()
	return defaultEngine
}

// SetDefaultEngine replaces the process-wide default OCR engine.
func SetDefaultEngine(engine Engine) {
	mu.Lock()
	defer mu.Unlock()
	defaultEngine = engine
}

// Register adds engine to the process-wide backend registry under its
// Name() (spec §4.5: "Registration is a process-wide operation"). A
// backend registered under a name already in use replaces the previous
// one; the previous one's Shutdown is not called automatically — a caller
// holding a reference to it remains responsible for tearing it down.
func Register(engine Engine) {
	mu.Lock()
	defer mu.Unlock()
	registered[engine.Name()] = engine
}

// Unregister removes the named backend from the registry and, if it
// implements Initializer, shuts it down. A name not present is a silent
// no-op.
func Unregister(ctx context.Context, name string) error {
	mu.Lock()
	engine, ok := registered[name]
	if ok {
		delete(registered, name)
	}
	mu.Unlock()
	if !ok {
		return nil
	}
	if init, ok := engine.(Initializer); ok {
		return init.Shutdown(ctx)
	}
	return nil
}

// Lookup returns the backend registered under name.
func Lookup(name string) (Engine, bool) {
	mu.RLock()
	defer mu.RUnlock()
	engine, ok := registered[name]
	return engine, ok
}

// ResolveEngine looks up the Engine registered under backend's name. Backend
// "none" and any name with no registered backend both resolve to the
// process-wide DefaultEngine (a no-op absent an explicit registration),
// matching spec §4.5's "falls back to the default" dispatch rule.
func ResolveEngine(backend core.OCRBackend) Engine {
	if backend == core.OCRBackendNone || backend == "" {
		return DefaultEngine()
	}
	if engine, ok := Lookup(string(backend)); ok {
		return engine
	}
	return DefaultEngine()
}

type noopEngine struct{}

func (noopEngine) Name() string { return "noop" }
func (noopEngine) Recognize(ctx context.Context, in Input) (Result, error) {
	return Result{InputID: in.ID}, nil
}

// Orchestrator dispatches OCR requests against a single Engine, bounding
// concurrency to min(CPU count, request count) and preserving submission
// order on batch results (spec §4.4's concurrency pool and ordering
// guarantees).
type Orchestrator struct {
	engine Engine
}

// NewOrchestrator wraps engine in an Orchestrator.
func NewOrchestrator(engine Engine) *Orchestrator {
	return &Orchestrator{engine: engine}
}

// RecognizeOne runs a single recognition request, bypassing the pool.
func (o *Orchestrator) RecognizeOne(ctx context.Context, in Input) (Result, error) {
	return o.engine.Recognize(ctx, in)
}

// RecognizeBatch dispatches inputs concurrently across a pool sized
// min(runtime.NumCPU(), len(inputs)), or delegates to the engine's native
// RecognizeBatch if it implements BatchEngine. Results are returned in the
// same order as inputs regardless of completion order. The first error
// observed cancels the remaining in-flight work and is returned; per §4.4
// "a single page failure fails the entire PDF extraction attempt", errors
// are never swallowed here.
func (o *Orchestrator) RecognizeBatch(ctx context.Context, inputs []Input) ([]Result, error) {
	if len(inputs) == 0 {
		return nil, nil
	}
	if batch, ok := o.engine.(BatchEngine); ok {
		return batch.RecognizeBatch(ctx, inputs)
	}

	poolSize := runtime.NumCPU()
	if poolSize > len(inputs) {
		poolSize = len(inputs)
	}
	if poolSize < 1 {
		poolSize = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]Result, len(inputs))
	errs := make([]error, len(inputs))
	sem := make(chan struct{}, poolSize)
	var wg sync.WaitGroup
	var (
		errOnce  sync.Once
		firstErr error
	)

	for i, in := range inputs {
		select {
		case <-ctx.Done():
			errs[i] = ctx.Err()
			continue
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(i int, in Input) {
			defer wg.Done()
			defer func() { <-sem }()
			res, err := o.engine.Recognize(ctx, in)
			if err != nil {
				errOnce.Do(func() { firstErr = err })
				errs[i] = err
				cancel()
				return
			}
			results[i] = res
		}(i, in)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}

// validateLanguageCodes reports a *core.ValidationError if any "+"-joined
// component of code is outside the Tesseract-supported allowlist (spec
// §4.4's closed allowlist requirement).
func validateLanguageCodes(codes []string) error {
	for _, code := range codes {
		if err := ValidateLanguage(code); err != nil {
			return err
		}
	}
	return nil
}

// ValidateLanguage checks a single (possibly "+"-joined multi-language)
// Tesseract language code string against the supported allowlist.
func ValidateLanguage(code string) error {
	for _, part := range splitPlus(code) {
		if !supportedLanguages[part] {
			return core.NewValidationError(
				"unsupported OCR language code: "+part,
				core.NewErrorContext("validate_ocr_language", core.WithExtra("code", code)))
		}
	}
	return nil
}

func splitPlus(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '+' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
