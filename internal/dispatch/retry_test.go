package dispatch

import (
	"testing"
	"time"

	appErrors "github.com/sneha-eps/Bland-AI-Caller/internal/errors"
)

func TestShouldRetryTerminalKinds(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

	for _, kind := range []appErrors.ErrorKind{appErrors.KindInvalidPhoneNumber, appErrors.KindAuthError} {
		if dec := p.ShouldRetry(kind, 1); dec.Retry {
			t.Errorf("kind %s must never be retried", kind)
		}
	}
}

func TestShouldRetryTransientKinds(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

	transient := []appErrors.ErrorKind{
		appErrors.KindServiceUnavailable,
		appErrors.KindRateLimited,
		appErrors.KindTimedOut,
		appErrors.KindCallFailed,
	}
	for _, kind := range transient {
		if dec := p.ShouldRetry(kind, 1); !dec.Retry {
			t.Errorf("kind %s should be retried on attempt 1", kind)
		}
	}
}

func TestShouldRetryBackoffDoubles(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 4, BaseDelay: time.Second}

	cases := []struct {
		attempts int
		want     time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
	}
	for _, c := range cases {
		dec := p.ShouldRetry(appErrors.KindServiceUnavailable, c.attempts)
		if !dec.Retry {
			t.Fatalf("attempt %d should retry", c.attempts)
		}
		if dec.Delay != c.want {
			t.Errorf("attempt %d delay = %v, want %v", c.attempts, dec.Delay, c.want)
		}
	}
}

func TestShouldRetryGivesUpAtMax(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second}

	if dec := p.ShouldRetry(appErrors.KindServiceUnavailable, 3); dec.Retry {
		t.Error("attempt count at max must give up")
	}
	if dec := p.ShouldRetry(appErrors.KindServiceUnavailable, 4); dec.Retry {
		t.Error("attempt count past max must give up")
	}
}

func TestShouldRetryDelayCapped(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 6, BaseDelay: time.Second, MaxDelay: 1500 * time.Millisecond}

	dec := p.ShouldRetry(appErrors.KindTimedOut, 4)
	if !dec.Retry {
		t.Fatal("expected retry")
	}
	if dec.Delay != 1500*time.Millisecond {
		t.Errorf("delay = %v, want capped 1.5s", dec.Delay)
	}
}
