package remoteop

import "time"

// Tier names the cache level that served a hit.
type Tier string

const (
	TierMemory   Tier = "memory"
	TierProvider Tier = "provider"
)

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The executor calls them on hot paths.
type Hooks interface {
	// A fresh cached value was returned without running work.
	CacheHit(key string, tier Tier)

	// A caller shared the result of an execution started by another caller.
	Joined(key string)

	// An attempt failed (including connectivity short-circuits).
	AttemptFailed(key string, attempt, max int, err error)

	// A retryable failure will be retried after delay.
	Retrying(key string, attempt int, delay time.Duration)

	// A successful result was not cached.
	// reason ∈ {"gen_mismatch", "gen_snapshot_error", "encode_error", "provider_rejected"}
	CacheSkipped(key, reason string)

	// A second-tier entry was deleted on read.
	// reason ∈ {"corrupt", "expired", "gen_mismatch", "value_decode"}
	SelfHeal(storageKey, reason string)

	// Provider or GenStore I/O failed. op ∈ {"get", "set", "del", "snapshot", "bump"}.
	BackendError(op string, err error)

	// The expiry sweep removed entries from the memory table.
	Swept(removed int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string, Tier)                 {}
func (NopHooks) Joined(string)                         {}
func (NopHooks) AttemptFailed(string, int, int, error) {}
func (NopHooks) Retrying(string, int, time.Duration)   {}
func (NopHooks) CacheSkipped(string, string)           {}
func (NopHooks) SelfHeal(string, string)               {}
func (NopHooks) BackendError(string, error)            {}
func (NopHooks) Swept(int)                             {}
