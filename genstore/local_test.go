package genstore

import (
	"context"
	"testing"
	"time"
)

func TestLocalSnapshotMissingIsZero(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	g, err := s.Snapshot(ctx, "op:profile:42")
	if err != nil {
		t.Fatal(err)
	}
	if g != 0 {
		t.Fatalf("gen=%d want 0", g)
	}
}

func TestLocalBumpManyIncrementsEachKey(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, 0)
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Bump(ctx, "b"); err != nil {
		t.Fatal(err)
	}
	if err := s.BumpMany(ctx, []string{"a", "b"}); err != nil {
		t.Fatal(err)
	}
	for k, want := range map[string]uint64{"a": 1, "b": 2, "c": 0} {
		got, _ := s.Snapshot(ctx, k)
		if got != want {
			t.Fatalf("%s gen=%d want %d", k, got, want)
		}
	}
}

func TestLocalCleanupPrunesOld(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(0, time.Minute)
	t.Cleanup(func() { _ = s.Close(ctx) })

	now := time.Unix(1_700_000_000, 0)
	s.now = func() time.Time { return now }

	if _, err := s.Bump(ctx, "old"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(45 * time.Second)
	if _, err := s.Bump(ctx, "fresh"); err != nil {
		t.Fatal(err)
	}
	now = now.Add(30 * time.Second)
	s.Cleanup(time.Minute)

	if g, _ := s.Snapshot(ctx, "old"); g != 0 {
		t.Fatalf("expected pruned -> 0, got %d", g)
	}
	if g, _ := s.Snapshot(ctx, "fresh"); g != 1 {
		t.Fatalf("fresh gen=%d want 1", g)
	}
	if s.Len() != 1 {
		t.Fatalf("Len=%d want 1", s.Len())
	}
}

func TestLocalCleanupLoopRuns(t *testing.T) {
	ctx := context.Background()
	s := NewLocalGenStore(5*time.Millisecond, 10*time.Millisecond)
	t.Cleanup(func() { _ = s.Close(ctx) })

	if _, err := s.Bump(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for s.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("cleanup loop never pruned")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLocalCloseIsIdempotent(t *testing.T) {
	s := NewLocalGenStore(10*time.Millisecond, time.Minute)
	_ = s.Close(context.Background())
	_ = s.Close(context.Background())
}
