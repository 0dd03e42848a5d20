package zap

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/remoteop"
)

func TestLoggerForwardsLevelAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := New(zap.New(core))

	l.Warn("attempt failed", remoteop.Fields{"key": "profile-get-42", "attempt": 2, "err": errors.New("network down")})
	l.Debug("noop", nil)

	all := logs.All()
	if len(all) != 2 {
		t.Fatalf("entries=%d want 2", len(all))
	}
	e := all[0]
	if e.Level != zapcore.WarnLevel || e.Message != "attempt failed" || e.LoggerName != "remoteop" {
		t.Fatalf("entry=%+v", e.Entry)
	}
	ctx := e.ContextMap()
	if ctx["key"] != "profile-get-42" || ctx["err"] != "network down" {
		t.Fatalf("fields=%v", ctx)
	}
}

func TestNewNilIsNop(t *testing.T) {
	New(nil).Error("dropped", remoteop.Fields{"x": 1})
}
