package ristretto

import (
	"context"
	"testing"
	"time"

	rc "github.com/dgraph-io/ristretto"
)

func newTestProvider(t *testing.T) *Provider {
	t.Helper()
	p, err := New(Config{NumCounters: 1000, MaxCost: 1 << 20, BufferItems: 64})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })
	return p
}

func TestInvalidConfig(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Fatalf("expected error on zero config")
	}
}

func TestSetGetDel(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	if ok, err := p.Set(ctx, "op:ns:a", []byte("v"), 1, time.Minute); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	p.Wait()

	b, ok, err := p.Get(ctx, "op:ns:a")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("Get: %q ok=%v err=%v", b, ok, err)
	}
	if err := p.Del(ctx, "op:ns:a"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, ok, _ := p.Get(ctx, "op:ns:a"); ok {
		t.Fatalf("expected miss after Del")
	}
}

func TestDelMatchingOnlyTouchesPattern(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	for _, k := range []string{"op:ns:profile-1", "op:ns:profile-2", "op:ns:orders-1", "op:other:profile-9"} {
		if ok, err := p.Set(ctx, k, []byte(k), 1, time.Minute); err != nil || !ok {
			t.Fatalf("Set %s: ok=%v err=%v", k, ok, err)
		}
	}
	p.Wait()

	n, err := p.DelMatching(ctx, "op:ns:", "profile")
	if err != nil {
		t.Fatalf("DelMatching: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed=%d want 2", n)
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
}

func TestEarlyMissKeepsKeyIndexed(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	if ok, err := p.Set(ctx, "op:ns:profile-1", []byte("v"), 1, time.Minute); err != nil || !ok {
		t.Fatalf("Set: ok=%v err=%v", ok, err)
	}
	// read before the buffered write is applied
	_, _, _ = p.Get(ctx, "op:ns:profile-1")
	p.Wait()

	n, err := p.DelMatching(ctx, "op:ns:", "profile")
	if err != nil || n != 1 {
		t.Fatalf("DelMatching: removed=%d err=%v want 1", n, err)
	}
	p.Wait()
	if _, ok, _ := p.Get(ctx, "op:ns:profile-1"); ok {
		t.Fatalf("entry survived DelMatching")
	}
}

func TestDroppedPrunesOnlyCurrentWrite(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, _ = p.Set(ctx, "op:ns:a", []byte("1"), 1, time.Minute)
	p.Wait()
	_, _ = p.Set(ctx, "op:ns:a", []byte("2"), 1, time.Minute)
	p.Wait()

	// eviction of the first write must not unindex the second
	p.dropped(&rc.Item{Value: stored{key: "op:ns:a", seq: 1}})
	if p.Len() != 1 {
		t.Fatalf("Len=%d want 1 after stale eviction", p.Len())
	}
	p.dropped(&rc.Item{Value: stored{key: "op:ns:a", seq: 2}})
	if p.Len() != 0 {
		t.Fatalf("Len=%d want 0 after eviction of current write", p.Len())
	}
}

func TestRejectedKeepsHeldKeyIndexed(t *testing.T) {
	ctx := context.Background()
	p := newTestProvider(t)

	_, _ = p.Set(ctx, "op:ns:a", []byte("1"), 1, time.Minute)
	p.Wait()
	p.mu.Lock()
	p.keys["op:ns:a"] = 7
	p.mu.Unlock()

	// a refused write of a key the cache still holds keeps the key indexed
	p.rejected(&rc.Item{Value: stored{key: "op:ns:a", seq: 7}})
	if p.Len() != 1 {
		t.Fatalf("Len=%d want 1", p.Len())
	}
	p.rejected(&rc.Item{Value: stored{key: "op:ns:missing", seq: 9}})
	if p.Len() != 1 {
		t.Fatalf("Len=%d want 1", p.Len())
	}
}
