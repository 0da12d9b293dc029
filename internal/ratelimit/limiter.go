// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter caps grants to at most limit per rolling window, shared across
// all dispatch workers. Grants go out in request order: a caller that
// started waiting first is served first, so no worker starves.
//
// Capacity is returned by time passing, not by callers: a grant expires
// once it slides out of the window. There is no release call.
type Limiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	grants  []time.Time      // timestamps still inside the window, oldest first
	waiters []chan time.Time // FIFO
	timer   *time.Timer
}

// Permit records when the grant happened.
type Permit struct {
	GrantedAt time.Time
}

// New creates a limiter allowing limit grants per window.
func New(limit int, window time.Duration) *Limiter {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &Limiter{limit: limit, window: window}
}

// PerMinute creates a limiter over a rolling 60-second window.
func PerMinute(limit int) *Limiter {
	return New(limit, time.Minute)
}

// Acquire blocks until a permit is free or ctx is done. Callers already
// waiting keep their place in line.
func (l *Limiter) Acquire(ctx context.Context) (Permit, error) {
	l.mu.Lock()
	now := time.Now()
	l.pruneLocked(now)
	if len(l.waiters) == 0 && len(l.grants) < l.limit {
		l.grants = append(l.grants, now)
		l.mu.Unlock()
		return Permit{GrantedAt: now}, nil
	}

	ready := make(chan time.Time, 1)
	l.waiters = append(l.waiters, ready)
	l.armTimerLocked()
	l.mu.Unlock()

	select {
	case t := <-ready:
		return Permit{GrantedAt: t}, nil
	case <-ctx.Done():
		l.mu.Lock()
		for i, w := range l.waiters {
			if w == ready {
				l.waiters = append(l.waiters[:i], l.waiters[i+1:]...)
				l.mu.Unlock()
				return Permit{}, ctx.Err()
			}
		}
		l.mu.Unlock()
		// The expiry goroutine granted us between Done and the lock.
		t := <-ready
		return Permit{GrantedAt: t}, nil
	}
}

// pruneLocked drops grants that slid out of the window.
func (l *Limiter) pruneLocked(now time.Time) {
	cutoff := now.Add(-l.window)
	i := 0
	for i < len(l.grants) && !l.grants[i].After(cutoff) {
		i++
	}
	l.grants = l.grants[i:]
}

// armTimerLocked schedules a wake-up for when the oldest grant expires.
func (l *Limiter) armTimerLocked() {
	if len(l.grants) == 0 {
		return
	}
	wait := time.Until(l.grants[0].Add(l.window))
	if wait < 0 {
		wait = 0
	}
	if l.timer == nil {
		l.timer = time.AfterFunc(wait, l.onExpiry)
	} else {
		l.timer.Reset(wait)
	}
}

func (l *Limiter) onExpiry() {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	l.pruneLocked(now)
	for len(l.waiters) > 0 && len(l.grants) < l.limit {
		w := l.waiters[0]
		l.waiters = l.waiters[1:]
		l.grants = append(l.grants, now)
		w <- now
	}
	if len(l.waiters) > 0 {
		l.armTimerLocked()
	}
}
