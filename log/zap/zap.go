// Package zap adapts a *zap.Logger to remoteop.Logger.
package zap

import (
	"maps"
	"slices"

	"go.uber.org/zap"

	"github.com/unkn0wn-root/remoteop"
)

var _ remoteop.Logger = Logger{}

type Logger struct{ l *zap.Logger }

// New returns an adapter logging under the "remoteop" name. nil => zap.NewNop().
func New(l *zap.Logger) Logger {
	if l == nil {
		l = zap.NewNop()
	}
	return Logger{l: l.Named("remoteop")}
}

func (z Logger) Debug(msg string, f remoteop.Fields) { z.l.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f remoteop.Fields)  { z.l.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f remoteop.Fields)  { z.l.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f remoteop.Fields) { z.l.Error(msg, fields(f)...) }

func fields(f remoteop.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
