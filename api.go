package remoteop

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/remoteop/codec"
	gen "github.com/unkn0wn-root/remoteop/genstore"
	pr "github.com/unkn0wn-root/remoteop/provider"
)

// Work is one unit of remote work. ctx carries the per-attempt deadline.
type Work[V any] func(ctx context.Context) (V, error)

type SetCostFunc func(storageKey string, raw []byte) int64

// Connector reports whether the remote store can be reached, connecting on demand.
// *connectivity.Tracker implements it.
type Connector interface {
	EnsureConnection(ctx context.Context) bool
}

// Executor runs keyed work with caching, in-flight deduplication and retries.
// V is the result type shared by every operation run through one executor.
type Executor[V any] interface {
	Enabled() bool
	Close(context.Context) error

	// Execute returns the cached value for key when WithTTL is set and the entry is
	// fresh, joins an in-flight execution for key, or starts a new one.
	Execute(ctx context.Context, key string, work Work[V], opts ...CallOption) (V, error)

	// ClearCache drops cached entries whose key contains pattern ("" drops all).
	ClearCache(ctx context.Context, pattern string) error
}

// Options tune the executor. Only Namespace is required.
type Options[V any] struct {
	Namespace string // isolates second-tier keys, e.g. "profile", "purchases"

	Connector     Connector        // nil => remote store treated as always reachable
	DefaultPolicy RetryPolicy      // merged over DefaultRetryPolicy()
	Retryable     func(error) bool // nil => IsRetryable
	Logger        Logger           // nil => NopLogger
	Hooks         Hooks            // nil => NopHooks
	SweepInterval time.Duration    // memory table expiry sweep; 0 => 60s
	Disabled      bool             // no caching, no dedup; retries still apply

	// Second tier (optional). Codec is required when Provider is set.
	Provider       pr.Provider
	Codec          c.Codec[V]
	ComputeSetCost SetCostFunc // default 1

	GenStore     gen.GenStore  // nil => LocalGenStore
	GenRetention time.Duration // LocalGenStore retention; 0 => 24h
}

func New[V any](opts Options[V]) (Executor[V], error) {
	return newExecutor[V](opts)
}

// CallOption adjusts a single Execute call.
type CallOption func(*callConfig)

type callConfig struct {
	policy RetryPolicy
	ttl    time.Duration
}

// WithPolicy overrides the non-zero fields of the executor's retry policy.
func WithPolicy(p RetryPolicy) CallOption {
	return func(cc *callConfig) { cc.policy = cc.policy.Merge(p) }
}

// WithTTL caches a successful result for ttl. ttl <= 0 disables caching.
func WithTTL(ttl time.Duration) CallOption {
	return func(cc *callConfig) { cc.ttl = ttl }
}
