// Package redis is a netpath.Path over a go-redis client together with the
// retry taxonomy for redis errors.
package redis

import (
	"context"
	"errors"
	"io"
	"strings"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/remoteop"
	"github.com/unkn0wn-root/remoteop/netpath"
)

// Path gates a go-redis client: while disabled, every command and pipeline
// sent through the client fails with netpath.ErrDisabled without touching the network.
type Path struct {
	rdb  goredis.UniversalClient
	gate netpath.Gate
}

var _ netpath.Path = (*Path)(nil)

// New installs the gate as a hook on rdb.
func New(rdb goredis.UniversalClient) *Path {
	p := &Path{rdb: rdb}
	rdb.AddHook(gateHook{&p.gate})
	return p
}

// Enable succeeds once the server answers PING. The PING passes a shut gate.
func (p *Path) Enable(ctx context.Context) error {
	if err := p.rdb.Ping(netpath.Probing(ctx)).Err(); err != nil {
		p.gate.Shut()
		return err
	}
	p.gate.Open()
	return nil
}

// Disable shuts the gate. Pooled connections are kept so a later Enable does
// not need to redial.
func (p *Path) Disable(context.Context) error {
	p.gate.Shut()
	return nil
}

func (p *Path) Enabled() bool { return p.gate.IsOpen() }

type gateHook struct{ g *netpath.Gate }

// DialHook does not gate: every dial is driven by a command that already
// passed ProcessHook, and a failed background dial would stall the pool.
func (h gateHook) DialHook(next goredis.DialHook) goredis.DialHook { return next }

func (h gateHook) ProcessHook(next goredis.ProcessHook) goredis.ProcessHook {
	return func(ctx context.Context, cmd goredis.Cmder) error {
		if err := h.g.Check(ctx); err != nil {
			cmd.SetErr(err)
			return err
		}
		return next(ctx, cmd)
	}
}

func (h gateHook) ProcessPipelineHook(next goredis.ProcessPipelineHook) goredis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []goredis.Cmder) error {
		if err := h.g.Check(ctx); err != nil {
			for _, cmd := range cmds {
				cmd.SetErr(err)
			}
			return err
		}
		return next(ctx, cmds)
	}
}

// server replies that clear up on their own
var transientReplies = []string{"LOADING", "READONLY", "CLUSTERDOWN", "TRYAGAIN", "MASTERDOWN", "BUSY"}

// Retryable classifies errors from a go-redis client. Transient server
// replies, a disabled path and dropped connections retry. Other server replies, misses and a
// closed client do not. Anything else falls back to remoteop.IsRetryable.
func Retryable(err error) bool {
	switch {
	case err == nil, errors.Is(err, goredis.Nil), errors.Is(err, goredis.ErrClosed):
		return false
	case errors.Is(err, netpath.ErrDisabled), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	var reply goredis.Error
	if errors.As(err, &reply) {
		msg := reply.Error()
		for _, p := range transientReplies {
			if strings.HasPrefix(msg, p) {
				return true
			}
		}
		return false
	}
	return remoteop.IsRetryable(err)
}
