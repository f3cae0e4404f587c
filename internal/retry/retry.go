// Package retry decides whether a failed attempt gets another one. The
// policy is pure bookkeeping: no sleeps and no backoff, because pacing
// between attempts is the rate limiter's job and a requeued action simply
// rejoins the queue at its original priority.
package retry

import (
	"context"
	"errors"

	"github.com/yash7pute/AI-Operations-Command-Center-sub010/internal/domain"
)

// DefaultMaxAttempts bounds execution attempts per action unless
// configured otherwise.
const DefaultMaxAttempts = 3

// Decision is the outcome of consulting the policy after a failed attempt.
type Decision int

const (
	// Retry means the action should be requeued for another attempt.
	Retry Decision = iota

	// Exhausted means the attempt budget is spent and the action fails
	// terminally.
	Exhausted
)

func (d Decision) String() string {
	if d == Retry {
		return "retry"
	}
	return "exhausted"
}

// Policy bounds how many finished attempts an action gets.
type Policy struct {
	MaxAttempts int
}

// DefaultPolicy returns the default retry policy.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts}
}

// Decide reports what happens after a finished attempt. attempts is the
// action's total count of finished attempts, including the one that just
// failed. A non-positive MaxAttempts behaves as 1: every action gets at
// least one attempt and a misconfigured policy never retries forever.
func (p Policy) Decide(attempts int) Decision {
	max := p.MaxAttempts
	if max <= 0 {
		max = 1
	}
	if attempts < max {
		return Retry
	}
	return Exhausted
}

// Retryable reports whether a dispatch failure is worth another attempt.
// Mapping and validation failures are configuration errors that retrying
// cannot fix, and a canceled context means shutdown rather than failure.
// Everything else an executor reports, including a dispatch deadline, is
// treated as transient.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if domain.Fatal(err) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	return true
}
