package ristretto

import (
	"context"
	"errors"
	"sync"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/remoteop/internal/util"
	pr "github.com/unkn0wn-root/remoteop/provider"
)

// Provider stores entries in a Ristretto cache. Ristretto hashes keys, so the
// provider keeps its own index of written keys to serve DelMatching. Every value
// carries its key and a write sequence; Ristretto's evict and reject callbacks
// prune the index only when the sequence still matches, so a later write of the
// same key stays indexed. A miss never prunes: Ristretto applies writes
// asynchronously and a miss may precede a buffered write.
type Provider struct {
	c *rc.Cache

	mu   sync.Mutex
	seq  uint64
	keys map[string]uint64
}

type stored struct {
	key string
	seq uint64
	raw []byte
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64
	BufferItems int64
	Metrics     bool
	// Cost in Ristretto is provided by the caller (remoteop passes cost per Set).
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	p := &Provider{keys: make(map[string]uint64)}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
		OnEvict:     p.dropped,
		OnReject:    p.rejected,
	})
	if err != nil {
		return nil, err
	}
	p.c = c
	return p, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	s, ok := v.(stored)
	if !ok || s.key != key {
		// hash collision or foreign value
		return nil, false, nil
	}
	return s.raw, true, nil
}

func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	p.mu.Lock()
	p.seq++
	seq := p.seq
	p.keys[key] = seq
	p.mu.Unlock()

	ok := p.c.SetWithTTL(key, stored{key: key, seq: seq, raw: value}, cost, ttl)
	if !ok {
		p.forget(key, seq)
	}
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	p.mu.Lock()
	delete(p.keys, key)
	p.mu.Unlock()
	return nil
}

func (p *Provider) DelMatching(_ context.Context, prefix, pattern string) (int, error) {
	p.mu.Lock()
	var matched []string
	for k := range p.keys {
		if util.MatchesUnder(k, prefix, pattern) {
			matched = append(matched, k)
			delete(p.keys, k)
		}
	}
	p.mu.Unlock()

	for _, k := range matched {
		p.c.Del(k)
	}
	return len(matched), nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// Wait blocks until buffered writes are applied. Useful in tests.
func (p *Provider) Wait() { p.c.Wait() }

// Metrics exposes Ristretto's counters; nil unless Config.Metrics is set.
func (p *Provider) Metrics() *rc.Metrics { return p.c.Metrics }

// Len reports how many keys the index holds.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.keys)
}

// dropped runs on Ristretto's eviction and rejection paths.
func (p *Provider) dropped(item *rc.Item) {
	if s, ok := item.Value.(stored); ok {
		p.forget(s.key, s.seq)
	}
}

// rejected runs when the admission policy refuses a buffered write. Ristretto
// also rejects a second buffered insert of a key it already holds, so the index
// follows whatever write is still cached.
func (p *Provider) rejected(item *rc.Item) {
	s, ok := item.Value.(stored)
	if !ok {
		return
	}
	if v, found := p.c.Get(s.key); found {
		if cur, ok := v.(stored); ok && cur.key == s.key {
			p.mu.Lock()
			if p.keys[s.key] == s.seq {
				p.keys[s.key] = cur.seq
			}
			p.mu.Unlock()
			return
		}
	}
	p.forget(s.key, s.seq)
}

// forget removes key from the index unless a newer write replaced it.
func (p *Provider) forget(key string, seq uint64) {
	p.mu.Lock()
	if p.keys[key] == seq {
		delete(p.keys, key)
	}
	p.mu.Unlock()
}
