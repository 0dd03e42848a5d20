// Package netpath is the client-side switch for the remote document store's
// network path. The connectivity tracker enables it to (re)connect and
// disables it when the host goes offline or offline mode is forced.
package netpath

import "context"

// Path enables or disables the remote store's network path.
// Both calls must be idempotent and safe for concurrent use.
type Path interface {
	Enable(ctx context.Context) error
	Disable(ctx context.Context) error
}

// Funcs adapts plain functions to Path. A nil func is a no-op.
type Funcs struct {
	EnableFunc  func(ctx context.Context) error
	DisableFunc func(ctx context.Context) error
}

var _ Path = Funcs{}

func (f Funcs) Enable(ctx context.Context) error {
	if f.EnableFunc == nil {
		return nil
	}
	return f.EnableFunc(ctx)
}

func (f Funcs) Disable(ctx context.Context) error {
	if f.DisableFunc == nil {
		return nil
	}
	return f.DisableFunc(ctx)
}
