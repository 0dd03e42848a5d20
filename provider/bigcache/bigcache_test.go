package bigcache

import (
	"context"
	"testing"
	"time"
)

func TestDelMatching(t *testing.T) {
	ctx := context.Background()
	p, err := New(ctx, Config{LifeWindow: time.Minute, Shards: 16, MaxEntriesInWindow: 64, MaxEntrySize: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	for _, k := range []string{"op:ns:profile-1", "op:ns:orders-1", "op:other:profile-9"} {
		if ok, err := p.Set(ctx, k, []byte(k), 1, time.Minute); err != nil || !ok {
			t.Fatalf("Set %s: ok=%v err=%v", k, ok, err)
		}
	}

	n, err := p.DelMatching(ctx, "op:ns:", "profile")
	if err != nil || n != 1 {
		t.Fatalf("DelMatching: n=%d err=%v", n, err)
	}
	if _, ok, _ := p.Get(ctx, "op:ns:profile-1"); ok {
		t.Fatalf("profile-1 should be gone")
	}
	if _, ok, _ := p.Get(ctx, "op:ns:orders-1"); !ok {
		t.Fatalf("orders-1 should survive")
	}
	if _, ok, _ := p.Get(ctx, "op:other:profile-9"); !ok {
		t.Fatalf("other namespace should survive")
	}

	n, err = p.DelMatching(ctx, "op:ns:", "")
	if err != nil || n != 1 {
		t.Fatalf("DelMatching all: n=%d err=%v", n, err)
	}
	if err := p.Del(ctx, "op:ns:missing"); err != nil {
		t.Fatalf("Del on missing key should be nil, got %v", err)
	}
}
