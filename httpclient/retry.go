package httpclient

import (
	"slices"
	"time"

	"github.com/gaborage/sheetsdk/config"
)

// NeverRetry is the default policy.
func NeverRetry(int, time.Duration, *Response) bool {
	return false
}

// MaxAttempts allows retries until n attempts in total have been made.
func MaxAttempts(n int) RetryPolicy {
	return func(attempts int, _ time.Duration, _ *Response) bool {
		return attempts < n
	}
}

// MaxElapsed allows retries while less than d has passed since the first attempt.
func MaxElapsed(d time.Duration) RetryPolicy {
	return func(_ int, elapsed time.Duration, _ *Response) bool {
		return elapsed < d
	}
}

// OnStatus allows retries only for the given status codes.
func OnStatus(codes ...int) RetryPolicy {
	codes = slices.Clone(codes)
	return func(_ int, _ time.Duration, resp *Response) bool {
		return resp != nil && slices.Contains(codes, resp.StatusCode)
	}
}

// AllOf retries only when every policy agrees. Nil policies are ignored and
// an empty set never retries, so AllOf cannot create an unbounded loop by itself.
func AllOf(policies ...RetryPolicy) RetryPolicy {
	active := make([]RetryPolicy, 0, len(policies))
	for _, p := range policies {
		if p != nil {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return NeverRetry
	}
	return func(attempts int, elapsed time.Duration, resp *Response) bool {
		for _, p := range active {
			if !p(attempts, elapsed, resp) {
				return false
			}
		}
		return true
	}
}

// PolicyFromConfig builds a policy from retry settings. MaxAttempts of 0 or 1 never retries.
func PolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	if cfg.MaxAttempts <= 1 {
		return NeverRetry
	}

	policies := []RetryPolicy{MaxAttempts(cfg.MaxAttempts)}
	if cfg.MaxElapsed > 0 {
		policies = append(policies, MaxElapsed(cfg.MaxElapsed))
	}
	if len(cfg.Statuses) > 0 {
		policies = append(policies, OnStatus(cfg.Statuses...))
	}
	return AllOf(policies...)
}
