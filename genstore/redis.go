package genstore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisGenStore shares generations between replicas that share a second tier,
// so a ClearCache on one replica also stops the others from repopulating.
// A TTL bounds growth; an expired generation reads as 0 and the affected
// second-tier entries self-heal on their next read.
type RedisGenStore struct {
	rdb         redis.UniversalClient
	ns          string
	ttl         time.Duration
	closeClient bool
}

var _ GenStore = (*RedisGenStore)(nil)

type RedisConfig struct {
	Client      redis.UniversalClient
	Namespace   string        // should match remoteop Options.Namespace
	TTL         time.Duration // 0 disables expiry
	CloseClient bool          // Close also closes Client
}

func NewRedisGenStore(cfg RedisConfig) *RedisGenStore {
	return &RedisGenStore{rdb: cfg.Client, ns: cfg.Namespace, ttl: cfg.TTL, closeClient: cfg.CloseClient}
}

func (s *RedisGenStore) key(k string) string { return "gen:" + s.ns + ":" + k }

// Snapshot returns the current generation. Missing keys are generation 0.
func (s *RedisGenStore) Snapshot(ctx context.Context, storageKey string) (uint64, error) {
	res, err := s.rdb.Get(ctx, s.key(storageKey)).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(res, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("redis gen parse: %w", err)
	}
	return u, nil
}

// Bump increments the generation and refreshes its TTL in one round-trip.
func (s *RedisGenStore) Bump(ctx context.Context, storageKey string) (uint64, error) {
	var incr *redis.IntCmd
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		incr = s.incr(ctx, p, storageKey)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return uint64(incr.Val()), nil
}

// BumpMany pipelines one INCR (and EXPIRE) per key.
func (s *RedisGenStore) BumpMany(ctx context.Context, storageKeys []string) error {
	if len(storageKeys) == 0 {
		return nil
	}
	_, err := s.rdb.Pipelined(ctx, func(p redis.Pipeliner) error {
		for _, k := range storageKeys {
			s.incr(ctx, p, k)
		}
		return nil
	})
	return err
}

func (s *RedisGenStore) incr(ctx context.Context, p redis.Pipeliner, storageKey string) *redis.IntCmd {
	k := s.key(storageKey)
	cmd := p.Incr(ctx, k)
	if s.ttl > 0 {
		p.Expire(ctx, k, s.ttl)
	}
	return cmd
}

// Cleanup is a no-op; redis expires generation keys when TTL is set.
func (s *RedisGenStore) Cleanup(time.Duration) {}

func (s *RedisGenStore) Close(context.Context) error {
	if s.closeClient {
		return s.rdb.Close()
	}
	return nil
}
