package netpath

import (
	"context"
	"errors"
	"sync/atomic"
)

// ErrDisabled is returned by a gated client while its path is disabled.
var ErrDisabled = errors.New("netpath: network path disabled")

// Gate cuts a client off from the network while its path is disabled.
// Adapters close it in Disable and open it when Enable succeeds. The zero
// value is open, so a client works before the first Enable.
type Gate struct {
	closed atomic.Bool
}

func (g *Gate) Open()        { g.closed.Store(false) }
func (g *Gate) Shut()        { g.closed.Store(true) }
func (g *Gate) IsOpen() bool { return !g.closed.Load() }

// Check returns ErrDisabled while the gate is shut, except for calls made
// under Probing so Enable can test the path.
func (g *Gate) Check(ctx context.Context) error {
	if g.closed.Load() && !isProbing(ctx) {
		return ErrDisabled
	}
	return nil
}

type probingKey struct{}

// Probing marks ctx as an Enable probe that passes a shut gate.
func Probing(ctx context.Context) context.Context {
	return context.WithValue(ctx, probingKey{}, true)
}

func isProbing(ctx context.Context) bool {
	v, _ := ctx.Value(probingKey{}).(bool)
	return v
}
