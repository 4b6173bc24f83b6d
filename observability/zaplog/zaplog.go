// Package zaplog adapts observability.Logger to go.uber.org/zap, kept as a
// separate package so importing the core extraction packages never forces
// a zap dependency on callers who supply their own Logger or use the
// default no-op.
package zaplog

import (
	"go.uber.org/zap"

	"github.com/wudi/kreuzberg-go/observability"
)

type logger struct {
	z *zap.Logger
}

// New wraps z as an observability.Logger.
func New(z *zap.Logger) observability.Logger {
	return logger{z: z}
}

// NewProduction constructs a zap production logger and wraps it.
func NewProduction() (observability.Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return New(z), nil
}

func (l logger) Debug(msg string, fields ...observability.Field) {
	l.z.Debug(msg, toZapFields(fields)...)
}

func (l logger) Info(msg string, fields ...observability.Field) {
	l.z.Info(msg, toZapFields(fields)...)
}

func (l logger) Warn(msg string, fields ...observability.Field) {
	l.z.Warn(msg, toZapFields(fields)...)
}

func (l logger) Error(msg string, fields ...observability.Field) {
	l.z.Error(msg, toZapFields(fields)...)
}

func (l logger) With(fields ...observability.Field) observability.Logger {
	return logger{z: l.z.With(toZapFields(fields)...)}
}

func toZapFields(fields []observability.Field) []zap.Field {
	out := make([]zap.Field, 0, len(fields))
	for _, f := range fields {
		switch v := f.Value().(type) {
		case string:
			out = append(out, zap.String(f.Key(), v))
		case int:
			out = append(out, zap.Int(f.Key(), v))
		case int64:
			out = append(out, zap.Int64(f.Key(), v))
		case error:
			out = append(out, zap.NamedError(f.Key(), v))
		default:
			out = append(out, zap.Any(f.Key(), v))
		}
	}
	return out
}
