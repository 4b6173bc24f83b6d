// Package recovery defines the decision point parsing components call into
// when they hit malformed input, so the caller (not the low-level reader)
// decides whether a broken xref table, truncated stream, or bad object
// header is fatal or worth skipping past.
package recovery

import "context"

// Context is the context type Strategy.OnError receives.
type Context = context.Context

// Strategy is consulted every time a reader hits an error it could
// otherwise plausibly work around.
type Strategy interface {
	OnError(ctx context.Context, err error, location Location) Action
}

// Location pinpoints where in the file (and, for object-level errors, which
// object) a recoverable error occurred.
type Location struct {
	ByteOffset int64
	ObjectNum  int
	ObjectGen  int
	Component  string
}

// Action is the caller's verdict on a reported error.
type Action int

const (
	ActionFail Action = iota // abort the parse
	ActionSkip                // drop the offending object/segment and continue
	ActionFix                 // the caller already patched its state; retry
	ActionWarn                // log and proceed as if nothing happened
)
