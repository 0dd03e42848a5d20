package remoteop

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnreachable = errors.New("remoteop: remote store unreachable")
	ErrTimeout     = errors.New("remoteop: attempt timed out")
	ErrClosed      = errors.New("remoteop: executor closed")
	ErrPanic       = errors.New("remoteop: work panicked")
)

// ConnectivityError is returned when the final attempt could not reach the
// remote store. The work was not invoked for that attempt.
type ConnectivityError struct {
	Key     string
	Attempt int
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("remoteop: %q attempt %d: remote store unreachable", e.Key, e.Attempt)
}

func (e *ConnectivityError) Is(target error) bool { return target == ErrUnreachable }

// TimeoutError is returned for an attempt whose work did not settle within the
// policy timeout. It is retryable.
type TimeoutError struct {
	Attempt int
	Limit   time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("remoteop: attempt %d timed out after %s", e.Attempt, e.Limit)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Timeout reports true, matching the timeout check net.Error callers use.
func (e *TimeoutError) Timeout() bool { return true }
