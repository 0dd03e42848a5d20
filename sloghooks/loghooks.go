// Package sloghooks logs remoteop hook events through log/slog.
package sloghooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/remoteop"
)

type Options struct {
	// Sampling to avoid floods; 0/1 = log all.
	HitEvery      uint64
	SelfHealEvery uint64
	// Optional key redactor applied to storage keys. Defaults to SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr      atomic.Uint64
	selfHealCtr atomic.Uint64
}

var _ remoteop.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) redact(k string) string {
	if h.opts.Redact != nil {
		return h.opts.Redact(k)
	}
	sum := sha256.Sum256([]byte(k))
	return hex.EncodeToString(sum[:8])
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n <= 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func (h *Hooks) CacheHit(key string, tier remoteop.Tier) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("remoteop.cache_hit", "key", key, "tier", string(tier))
}

func (h *Hooks) Joined(key string) {
	if h.l == nil {
		return
	}
	h.l.Debug("remoteop.joined", "key", key)
}

func (h *Hooks) AttemptFailed(key string, attempt, max int, err error) {
	if h.l == nil {
		return
	}
	level := slog.LevelInfo
	if attempt == max {
		level = slog.LevelWarn
	}
	h.l.Log(context.Background(), level, "remoteop.attempt_failed",
		"key", key,
		"attempt", attempt,
		"max", max,
		"err", err)
}

func (h *Hooks) Retrying(key string, attempt int, delay time.Duration) {
	if h.l == nil {
		return
	}
	h.l.Debug("remoteop.retrying", "key", key, "attempt", attempt, "delay", delay)
}

func (h *Hooks) CacheSkipped(key, reason string) {
	if h.l == nil {
		return
	}
	h.l.Info("remoteop.cache_skipped", "key", key, "reason", reason)
}

func (h *Hooks) SelfHeal(storageKey, reason string) {
	if h.l == nil || !sample(h.opts.SelfHealEvery, &h.selfHealCtr) {
		return
	}
	h.l.Debug("remoteop.self_heal",
		"key", h.redact(storageKey),
		"reason", reason)
}

func (h *Hooks) BackendError(op string, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("remoteop.backend_error", "op", op, "err", err)
}

func (h *Hooks) Swept(removed int) {
	if h.l == nil {
		return
	}
	h.l.Debug("remoteop.swept", "removed", removed)
}
