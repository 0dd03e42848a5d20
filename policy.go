package remoteop

import (
	"math"
	"time"
)

// RetryPolicy controls attempts of one execution. It is a value: merging returns a
// copy, and an execution keeps the policy it started with.
type RetryPolicy struct {
	MaxRetries    int           // total attempts including the first; < 1 behaves as 1
	InitialDelay  time.Duration // wait before the second attempt
	MaxDelay      time.Duration // cap for the growing wait
	BackoffFactor float64       // growth per attempt; values below 1 are treated as 1
	Timeout       time.Duration // per-attempt deadline; negative disables it
}

// DefaultRetryPolicy: 3 attempts, 1s doubling up to 10s, 15s per attempt.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    3,
		InitialDelay:  time.Second,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2,
		Timeout:       15 * time.Second,
	}
}

// Merge returns p with every non-zero field of o applied on top.
func (p RetryPolicy) Merge(o RetryPolicy) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    coalesce(o.MaxRetries, p.MaxRetries),
		InitialDelay:  coalesce(o.InitialDelay, p.InitialDelay),
		MaxDelay:      coalesce(o.MaxDelay, p.MaxDelay),
		BackoffFactor: coalesce(o.BackoffFactor, p.BackoffFactor),
		Timeout:       coalesce(o.Timeout, p.Timeout),
	}
}

func (p RetryPolicy) attempts() int {
	return max(p.MaxRetries, 1)
}

// next returns the wait that follows d. Growth saturates instead of
// overflowing, then MaxDelay caps it.
func (p RetryPolicy) next(d time.Duration) time.Duration {
	f := max(p.BackoffFactor, 1)
	n := time.Duration(math.MaxInt64)
	if g := float64(d) * f; g < float64(math.MaxInt64) {
		n = time.Duration(g)
	}
	if n < d {
		n = d
	}
	if p.MaxDelay > 0 && (n < 0 || n > p.MaxDelay) {
		n = p.MaxDelay
	}
	return n
}
