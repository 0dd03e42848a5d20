package remoteop

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	c "github.com/unkn0wn-root/remoteop/codec"
	gen "github.com/unkn0wn-root/remoteop/genstore"
	"github.com/unkn0wn-root/remoteop/internal/util"
	"github.com/unkn0wn-root/remoteop/internal/wire"
	pr "github.com/unkn0wn-root/remoteop/provider"
)

type entry[V any] struct {
	value     V
	storedAt  time.Time
	expiresAt time.Time
}

type executor[V any] struct {
	ns        string
	prefix    string
	conn      Connector
	policy    RetryPolicy
	retryable func(error) bool
	log       Logger
	hooks     Hooks
	enabled   bool

	provider       pr.Provider
	codec          c.Codec[V]
	computeSetCost SetCostFunc
	gens           gen.GenStore

	mu       sync.Mutex
	entries  map[string]entry[V]
	inflight map[string]int

	// clearMu orders ClearCache against cache admission: a result is admitted
	// only if its generation is still current while clearMu is held.
	clearMu sync.Mutex

	group singleflight.Group

	now  func() time.Time
	wait func(ctx context.Context, d time.Duration) error

	ticker    *time.Ticker
	stopCh    chan struct{}
	closeWg   sync.WaitGroup
	closeOnce sync.Once
	closed    atomic.Bool
}

var _ Executor[struct{}] = (*executor[struct{}])(nil)

func newExecutor[V any](opts Options[V]) (*executor[V], error) {
	if opts.Namespace == "" {
		return nil, fmt.Errorf("remoteop: namespace is required")
	}
	if opts.Provider != nil && opts.Codec == nil {
		return nil, fmt.Errorf("remoteop: codec is required when provider is set")
	}

	e := &executor[V]{
		ns:       opts.Namespace,
		prefix:   util.Prefix(opts.Namespace),
		policy:   DefaultRetryPolicy().Merge(opts.DefaultPolicy),
		enabled:  !opts.Disabled,
		provider: opts.Provider,
		codec:    opts.Codec,
		entries:  make(map[string]entry[V]),
		inflight: make(map[string]int),
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
	e.wait = e.sleep

	e.conn = coalesce[Connector](opts.Connector, alwaysReachable{})
	e.log = coalesce[Logger](opts.Logger, NopLogger{})
	e.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	e.retryable = opts.Retryable
	if e.retryable == nil {
		e.retryable = IsRetryable
	}
	e.computeSetCost = opts.ComputeSetCost
	if e.computeSetCost == nil {
		e.computeSetCost = func(string, []byte) int64 { return 1 }
	}

	sweep := coalesce(opts.SweepInterval, defaultSweep)
	e.gens = opts.GenStore
	if e.gens == nil {
		e.gens = gen.NewLocalGenStore(sweep, coalesce(opts.GenRetention, defaultGenRetention))
	}

	if e.enabled {
		e.ticker = time.NewTicker(sweep)
		e.closeWg.Add(1)
		go e.sweepLoop()
	}
	return e, nil
}

func (e *executor[V]) Enabled() bool { return e.enabled }

func (e *executor[V]) Execute(ctx context.Context, key string, work Work[V], opts ...CallOption) (V, error) {
	var zero V
	if work == nil {
		return zero, fmt.Errorf("remoteop: work is required")
	}
	if e.closed.Load() {
		return zero, ErrClosed
	}
	cc := callConfig{policy: e.policy}
	for _, o := range opts {
		o(&cc)
	}

	if !e.enabled {
		return e.executeWithRetry(ctx, key, work, cc.policy)
	}

	if cc.ttl > 0 {
		if v, ok := e.lookup(ctx, key); ok {
			return v, nil
		}
	}

	// led is written only by the closure, before DoChan delivers the result.
	led := false
	detached := context.WithoutCancel(ctx)
	ch := e.group.DoChan(key, func() (any, error) {
		led = true
		return e.run(detached, key, work, cc)
	})

	select {
	case r := <-ch:
		if !led {
			e.hooks.Joined(key)
		}
		v, _ := r.Val.(V)
		return v, r.Err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// run is the leader side of one keyed execution.
func (e *executor[V]) run(ctx context.Context, key string, work Work[V], cc callConfig) (V, error) {
	sk := util.StorageKey(e.ns, key)

	e.mu.Lock()
	e.inflight[key]++
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		if e.inflight[key]--; e.inflight[key] <= 0 {
			delete(e.inflight, key)
		}
		e.mu.Unlock()
	}()

	var (
		obs    uint64
		genErr error
	)
	if cc.ttl > 0 {
		if obs, genErr = e.gens.Snapshot(ctx, sk); genErr != nil {
			e.hooks.BackendError("snapshot", genErr)
		}
	}

	v, err := e.executeWithRetry(ctx, key, work, cc.policy)
	if err != nil || cc.ttl <= 0 {
		return v, err
	}
	if genErr != nil {
		e.hooks.CacheSkipped(key, "gen_snapshot_error")
		return v, nil
	}

	storedAt := e.now()
	expiresAt := storedAt.Add(cc.ttl)
	if e.admit(ctx, key, sk, v, obs, storedAt, expiresAt) && e.provider != nil {
		e.persist(ctx, key, sk, v, obs, storedAt, expiresAt, cc.ttl)
	}
	return v, nil
}

func (e *executor[V]) lookup(ctx context.Context, key string) (V, bool) {
	now := e.now()
	e.mu.Lock()
	en, ok := e.entries[key]
	if ok && now.After(en.expiresAt) {
		delete(e.entries, key)
		ok = false
	}
	e.mu.Unlock()
	if ok {
		e.hooks.CacheHit(key, TierMemory)
		return en.value, true
	}
	if e.provider == nil {
		var zero V
		return zero, false
	}
	return e.lookupProvider(ctx, key, now)
}

func (e *executor[V]) lookupProvider(ctx context.Context, key string, now time.Time) (V, bool) {
	var zero V
	sk := util.StorageKey(e.ns, key)
	raw, ok, err := e.provider.Get(ctx, sk)
	if err != nil {
		e.hooks.BackendError("get", err)
		e.log.Warn("provider get failed", Fields{"key": key, "err": err})
		return zero, false
	}
	if !ok {
		return zero, false
	}

	ent, err := wire.DecodeEntry(raw)
	if err != nil {
		e.heal(ctx, sk, "corrupt")
		return zero, false
	}
	if ent.Expired(now) {
		e.heal(ctx, sk, "expired")
		return zero, false
	}
	cur, err := e.gens.Snapshot(ctx, sk)
	if err != nil {
		e.hooks.BackendError("snapshot", err)
		return zero, false
	}
	if ent.Gen != cur {
		e.heal(ctx, sk, "gen_mismatch")
		return zero, false
	}
	v, err := e.codec.Decode(ent.Payload)
	if err != nil {
		e.heal(ctx, sk, "value_decode")
		return zero, false
	}

	e.admit(ctx, key, sk, v, ent.Gen, ent.StoredAt, ent.ExpiresAt)
	e.hooks.CacheHit(key, TierProvider)
	return v, true
}

func (e *executor[V]) heal(ctx context.Context, sk, reason string) {
	e.hooks.SelfHeal(sk, reason)
	if err := e.provider.Del(ctx, sk); err != nil {
		e.hooks.BackendError("del", err)
	}
}

// admit writes v into the memory table if obs is still the current generation.
func (e *executor[V]) admit(ctx context.Context, key, sk string, v V, obs uint64, storedAt, expiresAt time.Time) bool {
	e.clearMu.Lock()
	defer e.clearMu.Unlock()

	cur, err := e.gens.Snapshot(ctx, sk)
	if err != nil {
		e.hooks.BackendError("snapshot", err)
		e.hooks.CacheSkipped(key, "gen_snapshot_error")
		return false
	}
	if cur != obs {
		e.log.Debug("result not cached (gen mismatch)", Fields{"key": key, "obs": obs, "cur": cur})
		e.hooks.CacheSkipped(key, "gen_mismatch")
		return false
	}

	e.mu.Lock()
	e.entries[key] = entry[V]{value: v, storedAt: storedAt, expiresAt: expiresAt}
	e.mu.Unlock()
	return true
}

// persist writes the result to the second tier. A write racing a clear carries
// the old generation and is dropped by the next read.
func (e *executor[V]) persist(ctx context.Context, key, sk string, v V, obs uint64, storedAt, expiresAt time.Time, ttl time.Duration) {
	payload, err := e.codec.Encode(v)
	if err != nil {
		e.log.Warn("result encode failed", Fields{"key": key, "err": err})
		e.hooks.CacheSkipped(key, "encode_error")
		return
	}
	raw := wire.EncodeEntry(wire.Entry{Gen: obs, StoredAt: storedAt, ExpiresAt: expiresAt, Payload: payload})
	ok, err := e.provider.Set(ctx, sk, raw, e.computeSetCost(sk, raw), ttl)
	if err != nil {
		e.hooks.BackendError("set", err)
		e.log.Warn("provider set failed", Fields{"key": key, "err": err})
		return
	}
	if !ok {
		e.hooks.CacheSkipped(key, "provider_rejected")
	}
}

func (e *executor[V]) executeWithRetry(ctx context.Context, key string, work Work[V], p RetryPolicy) (V, error) {
	var zero V
	attempts := p.attempts()
	delay := p.InitialDelay

	for n := 1; ; n++ {
		final := n == attempts
		if !e.conn.EnsureConnection(ctx) {
			if final {
				err := &ConnectivityError{Key: key, Attempt: n}
				e.failed(key, n, attempts, err)
				return zero, err
			}
			e.log.Debug("remote store unreachable, attempting anyway", Fields{"key": key, "attempt": n})
		}

		v, err := e.attempt(ctx, n, work, p.Timeout)
		if err == nil {
			return v, nil
		}
		e.failed(key, n, attempts, err)
		if final || !e.retryable(err) {
			return zero, err
		}

		e.hooks.Retrying(key, n, delay)
		if werr := e.wait(ctx, delay); werr != nil {
			return zero, errors.Join(werr, err)
		}
		delay = p.next(delay)
	}
}

func (e *executor[V]) failed(key string, n, attempts int, err error) {
	e.log.Warn("attempt failed", Fields{"key": key, "attempt": n, "max": attempts, "err": err})
	e.hooks.AttemptFailed(key, n, attempts, err)
}

// attempt runs work once and races it against the per-attempt deadline.
// On timeout the work goroutine is abandoned; its ctx is already done.
func (e *executor[V]) attempt(ctx context.Context, n int, work Work[V], timeout time.Duration) (V, error) {
	if timeout <= 0 {
		return invoke(ctx, work)
	}
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		v   V
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := invoke(actx, work)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-actx.Done():
		var zero V
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, &TimeoutError{Attempt: n, Limit: timeout}
	}
}

func invoke[V any](ctx context.Context, work Work[V]) (v V, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return work(ctx)
}

func (e *executor[V]) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-e.stopCh:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *executor[V]) ClearCache(ctx context.Context, pattern string) error {
	if !e.enabled {
		return nil
	}
	e.clearMu.Lock()
	defer e.clearMu.Unlock()

	seen := make(map[string]struct{})
	e.mu.Lock()
	for k := range e.entries {
		if util.Matches(k, pattern) {
			delete(e.entries, k)
			seen[k] = struct{}{}
		}
	}
	for k := range e.inflight {
		if util.Matches(k, pattern) {
			seen[k] = struct{}{}
		}
	}
	e.mu.Unlock()

	sks := make([]string, 0, len(seen))
	for k := range seen {
		sks = append(sks, util.StorageKey(e.ns, k))
	}

	var errs []error
	if err := e.gens.BumpMany(ctx, sks); err != nil {
		e.hooks.BackendError("bump", err)
		errs = append(errs, fmt.Errorf("remoteop: bump generations: %w", err))
	}
	removed := 0
	if e.provider != nil {
		n, err := e.provider.DelMatching(ctx, e.prefix, pattern)
		if err != nil {
			e.hooks.BackendError("del", err)
			errs = append(errs, fmt.Errorf("remoteop: provider clear: %w", err))
		}
		removed = n
	}
	e.log.Debug("cache cleared", Fields{"pattern": pattern, "keys": len(sks), "provider_removed": removed})
	return errors.Join(errs...)
}

func (e *executor[V]) sweepLoop() {
	defer e.closeWg.Done()
	for {
		select {
		case <-e.ticker.C:
			e.sweep()
		case <-e.stopCh:
			return
		}
	}
}

func (e *executor[V]) sweep() int {
	now := e.now()
	removed := 0
	e.mu.Lock()
	for k, en := range e.entries {
		if now.After(en.expiresAt) {
			delete(e.entries, k)
			removed++
		}
	}
	e.mu.Unlock()

	if removed > 0 {
		e.hooks.Swept(removed)
		e.log.Debug("expired entries swept", Fields{"removed": removed})
	}
	return removed
}

func (e *executor[V]) Close(ctx context.Context) error {
	var errs []error
	e.closeOnce.Do(func() {
		e.closed.Store(true)
		close(e.stopCh)
		if e.ticker != nil {
			e.ticker.Stop()
		}
		e.closeWg.Wait()
		if err := e.gens.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		if e.provider != nil {
			if err := e.provider.Close(ctx); err != nil {
				errs = append(errs, err)
			}
		}
	})
	return errors.Join(errs...)
}
