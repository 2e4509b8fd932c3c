package gateway

import (
	"context"
	"sync"
	"time"

	"github.com/traktrelay/traktrelay/internal/metrics"
)

// RateDecision is the outcome of a rate-limit check.
type RateDecision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// rateRecord tracks one client's current window. Only the limiter mutates it.
type rateRecord struct {
	count   int
	resetAt time.Time
}

// RateLimiter is a fixed-window per-client limiter over a mutex-guarded map.
// Windows are not sliding: bursts up to the limit are admitted within any
// single window, and adjacent windows can admit up to twice the limit in a
// span approaching two window lengths. The map is process-local, so under
// horizontal scaling the limit bounds load per instance, not globally.
type RateLimiter struct {
	// Clock is overridable in tests; defaults to time.Now.
	Clock func() time.Time

	mu      sync.Mutex
	records map[string]*rateRecord
	limit   int
	window  time.Duration
}

// NewRateLimiter returns a limiter admitting limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		records: make(map[string]*rateRecord),
		limit:   limit,
		window:  window,
	}
}

// Limit returns the configured per-window budget.
func (l *RateLimiter) Limit() int {
	return l.limit
}

// Window returns the configured window length.
func (l *RateLimiter) Window() time.Duration {
	return l.window
}

// Check decides whether a request from clientID is admitted. The read, the
// boundary check, and the increment happen under one lock acquisition, so two
// concurrent requests at count = limit-1 admit exactly one. Check never fails;
// an unknown client is simply the first request of a new window.
func (l *RateLimiter) Check(clientID string) RateDecision {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[clientID]
	if !ok || now.After(rec.resetAt) {
		rec = &rateRecord{count: 1, resetAt: now.Add(l.window)}
		l.records[clientID] = rec
		return RateDecision{
			Allowed:   true,
			Remaining: l.limit - 1,
			ResetIn:   l.window,
		}
	}

	if rec.count >= l.limit {
		// Rejections do not consume budget.
		return RateDecision{
			Allowed:   false,
			Remaining: 0,
			ResetIn:   rec.resetAt.Sub(now),
		}
	}

	rec.count++
	remaining := l.limit - rec.count
	if remaining < 0 {
		remaining = 0
	}
	return RateDecision{
		Allowed:   true,
		Remaining: remaining,
		ResetIn:   rec.resetAt.Sub(now),
	}
}

// Sweep removes every record whose window has already expired and returns the
// eviction count. Safe to call concurrently with Check.
func (l *RateLimiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	evicted := 0
	for key, rec := range l.records {
		if now.After(rec.resetAt) {
			delete(l.records, key)
			evicted++
		}
	}
	return evicted
}

// Tracked returns the number of client records currently held.
func (l *RateLimiter) Tracked() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// StartSweeper starts a goroutine that evicts expired records every period.
// Stop it by cancelling the context.
func (l *RateLimiter) StartSweeper(ctx context.Context, period time.Duration) {
	if period <= 0 {
		return
	}

	t := time.NewTicker(period)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				metrics.RecordSweep(l.Sweep())
				metrics.SetTrackedClients(l.Tracked())
			}
		}
	}()
}

func (l *RateLimiter) now() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now()
}
