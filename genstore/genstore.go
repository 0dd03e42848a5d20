// Package genstore keeps per-key generations for remoteop. A generation is
// observed before an execution starts and compared before its result is
// cached; ClearCache bumps it so results computed before a clear are dropped.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use LocalGenStore (default) for in-process gens, or RedisGenStore to share
// gens across replicas that share a second-tier provider.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// BumpMany increments every key; used by pattern clears.
	BumpMany(ctx context.Context, storageKeys []string) error
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
