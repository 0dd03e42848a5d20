// Package slog adapts a *slog.Logger to remoteop.Logger.
package slog

import (
	"context"
	stdslog "log/slog"
	"maps"
	"slices"

	"github.com/unkn0wn-root/remoteop"
)

var _ remoteop.Logger = Logger{}

type Logger struct{ l *stdslog.Logger }

// New adds component=remoteop to every record. nil => slog.Default().
func New(l *stdslog.Logger) Logger {
	if l == nil {
		l = stdslog.Default()
	}
	return Logger{l: l.With("component", "remoteop")}
}

func (s Logger) Debug(msg string, f remoteop.Fields) { s.log(stdslog.LevelDebug, msg, f) }
func (s Logger) Info(msg string, f remoteop.Fields)  { s.log(stdslog.LevelInfo, msg, f) }
func (s Logger) Warn(msg string, f remoteop.Fields)  { s.log(stdslog.LevelWarn, msg, f) }
func (s Logger) Error(msg string, f remoteop.Fields) { s.log(stdslog.LevelError, msg, f) }

func (s Logger) log(level stdslog.Level, msg string, f remoteop.Fields) {
	ctx := context.Background()
	if !s.l.Enabled(ctx, level) {
		return
	}
	attrs := make([]stdslog.Attr, 0, len(f))
	for _, k := range slices.Sorted(maps.Keys(f)) {
		attrs = append(attrs, stdslog.Any(k, f[k]))
	}
	s.l.LogAttrs(ctx, level, msg, attrs...)
}
