package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	// ErrTimeout marks an attempt abandoned after the per-provider timeout.
	ErrTimeout = errors.New("provider timed out")
	// ErrPanicked marks an attempt whose sender panicked mid-call.
	ErrPanicked = errors.New("provider panicked")
	// ErrRateLimited marks an attempt that never reached the provider.
	ErrRateLimited = errors.New("rate limit wait failed")
)

// Failure is one failed provider attempt.
type Failure struct {
	Provider  string `json:"provider"`
	Err       error  `json:"-"`
	Retryable bool   `json:"isRetryable"`
}

// Unsettled reports whether the provider may still have accepted the
// message: the call was abandoned on timeout or died in a panic.
func (f Failure) Unsettled() bool {
	if errors.Is(f.Err, ErrRateLimited) {
		return false
	}
	return errors.Is(f.Err, ErrTimeout) ||
		errors.Is(f.Err, context.DeadlineExceeded) ||
		errors.Is(f.Err, ErrPanicked)
}

// ExhaustedError is returned when every provider in the chain failed.
type ExhaustedError struct {
	Failures []Failure
}

func (e *ExhaustedError) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("%s: %v", f.Provider, f.Err)
	}
	return "all email providers failed: " + strings.Join(parts, "; ")
}

func (e *ExhaustedError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

var retryableHints = []string{
	"timeout", "timed out", "network", "connection reset", "connection refused",
	"econnreset", "econnrefused", "enotfound", "no such host", "temporarily unavailable",
}

// IsRetryable reports whether err looks like a timeout or network failure.
// The result is diagnostic only.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, h := range retryableHints {
		if strings.Contains(msg, h) {
			return true
		}
	}
	return false
}
