package pdf

import (
	"path/filepath"
	"sync"
)

// pathLock is a refcounted mutex for one canonical file path. Extraction
// acquires it once per top-level call (ExtractPathSync) and holds it across
// the whole open/retry/render/close sequence, so a single extraction never
// needs to re-enter its own lock; that structure is what lets a plain
// sync.Mutex satisfy the "reentrant mutex keyed by canonical file path"
// requirement without a hand-rolled reentrant primitive.
type pathLock struct {
	mu   sync.Mutex
	refs int
}

var (
	locksMu sync.Mutex
	locks   = map[string]*pathLock{}
)

// canonicalPath resolves path the way the lock registry keys on it.
// Symlink resolution failures (missing file, permission) fall back to the
// absolute path so a not-yet-readable path still gets a stable lock key.
func canonicalPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved
	}
	return abs
}

// lockPath serializes every underlying engine call against the same
// canonical path, matching the PDFium concurrency-safety requirement that
// no two operations overlap on one document. The returned func releases
// the lock and, once the last holder for that path has released it, drops
// the path's entry so the registry does not grow unbounded over a long
// process lifetime.
func lockPath(canonical string) func() {
	locksMu.Lock()
	l, ok := locks[canonical]
	if !ok {
		l = &pathLock{}
		locks[canonical] = l
	}
	l.refs++
	locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		locksMu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(locks, canonical)
		}
		locksMu.Unlock()
	}
}
