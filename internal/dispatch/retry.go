// internal/dispatch/retry.go
package dispatch

import (
	"math/rand"
	"time"

	appErrors "github.com/sneha-eps/Bland-AI-Caller/internal/errors"
)

// Decision is the retry verdict for a failed attempt.
type Decision struct {
	Retry bool
	Delay time.Duration
}

// RetryPolicy decides whether a failed attempt gets another try. Only
// transient error kinds are ever retried; invalid numbers and bad
// credentials are terminal no matter how many attempts remain.
type RetryPolicy struct {
	MaxAttempts int           // total attempts including the first
	BaseDelay   time.Duration // delay before attempt 2
	MaxDelay    time.Duration // backoff cap, 0 = uncapped
	Jitter      float64       // 0..1 fraction of delay added randomly
}

// DefaultRetryPolicy matches the campaign defaults: 3 attempts, 30s base.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		BaseDelay:   30 * time.Second,
		MaxDelay:    5 * time.Minute,
	}
}

// ShouldRetry returns the verdict after attemptsSoFar attempts (1-based)
// have failed with the given kind. Delay doubles per attempt: base × 2^(n-1).
func (p RetryPolicy) ShouldRetry(kind appErrors.ErrorKind, attemptsSoFar int) Decision {
	if !kind.Transient() {
		return Decision{}
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if attemptsSoFar >= maxAttempts {
		return Decision{}
	}

	delay := p.BaseDelay
	for i := 1; i < attemptsSoFar; i++ {
		delay *= 2
		if p.MaxDelay > 0 && delay >= p.MaxDelay {
			delay = p.MaxDelay
			break
		}
	}
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	if p.Jitter > 0 {
		delay += time.Duration(rand.Float64() * p.Jitter * float64(delay))
	}
	return Decision{Retry: true, Delay: delay}
}
