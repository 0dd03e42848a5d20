package remoteop

import (
	"testing"
	"time"
)

func TestPolicyMergeKeepsUnsetFields(t *testing.T) {
	p := DefaultRetryPolicy().Merge(RetryPolicy{MaxRetries: 5, Timeout: -1})
	want := RetryPolicy{MaxRetries: 5, InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2, Timeout: -1}
	if p != want {
		t.Fatalf("merged=%+v want %+v", p, want)
	}
}

func TestPolicyBackoffIsCappedAndNonDecreasing(t *testing.T) {
	p := RetryPolicy{InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}
	d := p.InitialDelay
	var got []time.Duration
	for i := 0; i < 6; i++ {
		got = append(got, d)
		d = p.next(d)
	}
	want := []time.Duration{1, 2, 4, 8, 10, 10}
	for i := range want {
		if got[i] != want[i]*time.Second {
			t.Fatalf("delays=%v", got)
		}
	}

	flat := RetryPolicy{BackoffFactor: 0.5}
	if flat.next(time.Second) != time.Second {
		t.Fatalf("factor below 1 must not shrink the delay")
	}
}

func TestPolicyAttemptsAtLeastOne(t *testing.T) {
	if (RetryPolicy{}).attempts() != 1 || (RetryPolicy{MaxRetries: -3}).attempts() != 1 {
		t.Fatalf("attempts must be at least 1")
	}
}

func TestPolicyBackoffSaturatesOnHugeFactor(t *testing.T) {
	p := RetryPolicy{MaxDelay: 10 * time.Second, BackoffFactor: 1e30}
	if got := p.next(time.Second); got != 10*time.Second {
		t.Fatalf("next=%v want MaxDelay", got)
	}
	uncapped := RetryPolicy{BackoffFactor: 1e30}
	if got := uncapped.next(time.Second); got <= 0 {
		t.Fatalf("next=%v overflowed", got)
	}
	if got := (RetryPolicy{MaxDelay: time.Second, BackoffFactor: 2}).next(0); got != 0 {
		t.Fatalf("zero delay must stay zero, got %v", got)
	}
}
