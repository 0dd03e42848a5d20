package asynchook

import (
	"sync"
	"testing"

	"github.com/unkn0wn-root/remoteop"
)

type countHooks struct {
	remoteop.NopHooks
	mu    sync.Mutex
	hits  int
	block chan struct{}
}

func (c *countHooks) CacheHit(string, remoteop.Tier) {
	if c.block != nil {
		<-c.block
	}
	c.mu.Lock()
	c.hits++
	c.mu.Unlock()
}

func TestDeliversAndDrainsOnClose(t *testing.T) {
	inner := &countHooks{}
	h := New(inner, 2, 16)
	for i := 0; i < 10; i++ {
		h.CacheHit("k", remoteop.TierMemory)
	}
	h.Close()
	if inner.hits != 10 || h.Dropped() != 0 {
		t.Fatalf("hits=%d dropped=%d", inner.hits, h.Dropped())
	}
	h.CacheHit("k", remoteop.TierMemory)
	if h.Dropped() != 1 {
		t.Fatalf("events after Close must be dropped")
	}
}

func TestDropsWhenQueueFull(t *testing.T) {
	inner := &countHooks{block: make(chan struct{})}
	h := New(inner, 1, 1)
	for i := 0; i < 5; i++ {
		h.CacheHit("k", remoteop.TierProvider)
	}
	if h.Dropped() == 0 {
		t.Fatalf("expected drops with a blocked worker")
	}
	close(inner.block)
	h.Close()
}
