package remoteop

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"
)

// codes a backend reports for transient unavailability, normalized by normalizeCode.
var retryableCodes = map[string]struct{}{
	"unavailable":      {},
	"deadlineexceeded": {},
	"internal":         {},
	"unknown":          {},
}

var retryableFragments = []string{
	"network",
	"connection",
	"timeout",
	"transport",
	"econnrefused",
	"enotfound",
}

// IsRetryable is the default transient-failure classifier.
//
// Retryable: attempt timeouts, deadline exceeded, net timeouts, refused or reset
// connections, errors exposing Code() with unavailable/deadline-exceeded/internal/
// unknown, and errors whose message mentions a network, connection, timeout or
// transport condition. Everything else fails on first occurrence.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUnreachable) || errors.Is(err, ErrPanic) || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var coded interface{ Code() string }
	if errors.As(err, &coded) {
		if _, ok := retryableCodes[normalizeCode(coded.Code())]; ok {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	for _, f := range retryableFragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

// normalizeCode folds "DEADLINE_EXCEEDED", "deadline-exceeded" and
// "DeadlineExceeded" to the same form.
func normalizeCode(code string) string {
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range strings.ToLower(code) {
		switch r {
		case '-', '_', ' ', '/':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
