// Package asynchook moves remoteop hook calls off the executor's hot path.
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{HitEvery: 100})
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	exec, _ := remoteop.New[Profile](remoteop.Options[Profile]{
//	    Namespace: "profile",
//	    Hooks:     hooks, // or raw for synchronous delivery
//	})
//
// Events are dropped, never blocked on, when the queue is full.
package asynchook

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/unkn0wn-root/remoteop"
)

type Hooks struct {
	inner   remoteop.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	closed  atomic.Bool
	dropped atomic.Uint64
}

var _ remoteop.Hooks = (*Hooks)(nil)

func New(inner remoteop.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}
	if inner == nil {
		inner = remoteop.NopHooks{}
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains queued events and stops the workers. Events after Close are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		h.closed.Store(true)
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	if h.closed.Load() {
		h.dropped.Add(1)
		return
	}
	defer func() {
		// send on a queue closed concurrently
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(k string, t remoteop.Tier) { h.try(func() { h.inner.CacheHit(k, t) }) }
func (h *Hooks) Joined(k string)                    { h.try(func() { h.inner.Joined(k) }) }
func (h *Hooks) CacheSkipped(k, r string)           { h.try(func() { h.inner.CacheSkipped(k, r) }) }
func (h *Hooks) SelfHeal(k, r string)               { h.try(func() { h.inner.SelfHeal(k, r) }) }
func (h *Hooks) BackendError(op string, err error)  { h.try(func() { h.inner.BackendError(op, err) }) }
func (h *Hooks) Swept(n int)                        { h.try(func() { h.inner.Swept(n) }) }
func (h *Hooks) AttemptFailed(k string, n, max int, err error) {
	h.try(func() { h.inner.AttemptFailed(k, n, max, err) })
}
func (h *Hooks) Retrying(k string, n int, d time.Duration) {
	h.try(func() { h.inner.Retrying(k, n, d) })
}
