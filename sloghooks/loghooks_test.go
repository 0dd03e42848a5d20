package sloghooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/unkn0wn-root/remoteop"
)

func newBuffered(opts Options) (*Hooks, *bytes.Buffer) {
	var buf bytes.Buffer
	l := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return New(l, opts), &buf
}

func TestSelfHealRedactsStorageKey(t *testing.T) {
	h, buf := newBuffered(Options{})
	h.SelfHeal("op:profile:profile-get-42", "corrupt")
	out := buf.String()
	if strings.Contains(out, "profile-get-42") || !strings.Contains(out, "reason=corrupt") {
		t.Fatalf("log=%q", out)
	}
}

func TestHitSampling(t *testing.T) {
	h, buf := newBuffered(Options{HitEvery: 3})
	for i := 0; i < 9; i++ {
		h.CacheHit("k", remoteop.TierMemory)
	}
	if n := strings.Count(buf.String(), "remoteop.cache_hit"); n != 3 {
		t.Fatalf("logged %d hits want 3", n)
	}
}

func TestFinalAttemptLogsAtWarn(t *testing.T) {
	h, buf := newBuffered(Options{})
	h.AttemptFailed("k", 1, 3, errors.New("timeout"))
	h.AttemptFailed("k", 3, 3, errors.New("timeout"))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], "level=INFO") || !strings.Contains(lines[1], "level=WARN") {
		t.Fatalf("lines=%q", lines)
	}
}

func TestNilLoggerIsSilent(t *testing.T) {
	New(nil, Options{}).BackendError("get", errors.New("x"))
}
