package netpath

import (
	"context"
	"errors"
	"testing"
)

func TestFuncs(t *testing.T) {
	ctx := context.Background()
	if err := (Funcs{}).Enable(ctx); err != nil {
		t.Fatalf("nil EnableFunc must be a no-op: %v", err)
	}
	boom := errors.New("boom")
	disabled := false
	f := Funcs{
		EnableFunc:  func(context.Context) error { return boom },
		DisableFunc: func(context.Context) error { disabled = true; return nil },
	}
	if err := f.Enable(ctx); err != boom {
		t.Fatalf("Enable=%v", err)
	}
	if err := f.Disable(ctx); err != nil || !disabled {
		t.Fatalf("Disable not forwarded")
	}
}

func TestGate(t *testing.T) {
	ctx := context.Background()
	var g Gate
	if !g.IsOpen() || g.Check(ctx) != nil {
		t.Fatalf("zero gate must be open")
	}
	g.Shut()
	if err := g.Check(ctx); !errors.Is(err, ErrDisabled) {
		t.Fatalf("shut gate: %v", err)
	}
	if err := g.Check(Probing(ctx)); err != nil {
		t.Fatalf("probe must pass a shut gate: %v", err)
	}
	g.Open()
	if err := g.Check(ctx); err != nil {
		t.Fatalf("reopened gate: %v", err)
	}
}
