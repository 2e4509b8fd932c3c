package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRateLimiterWindowBoundary(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(3, time.Minute)
	limiter.Clock = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		dec := limiter.Check("10.0.0.1")
		require.True(t, dec.Allowed, "request %d should be admitted", i+1)
	}

	// The (L+1)th and every following request within the window are rejected.
	dec := limiter.Check("10.0.0.1")
	require.False(t, dec.Allowed)
	require.Equal(t, 0, dec.Remaining)
	require.Equal(t, time.Minute, dec.ResetIn)

	dec = limiter.Check("10.0.0.1")
	require.False(t, dec.Allowed)
}

func TestRateLimiterRemainingCountsDown(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(5, time.Minute)
	limiter.Clock = func() time.Time { return now }

	dec := limiter.Check("10.0.0.1")
	require.True(t, dec.Allowed)
	require.Equal(t, 4, dec.Remaining)

	dec = limiter.Check("10.0.0.1")
	require.Equal(t, 3, dec.Remaining)
}

func TestRateLimiterWindowReset(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(2, time.Minute)
	limiter.Clock = func() time.Time { return now }

	require.True(t, limiter.Check("10.0.0.1").Allowed)
	require.True(t, limiter.Check("10.0.0.1").Allowed)
	require.False(t, limiter.Check("10.0.0.1").Allowed)

	// After the window elapses the next request opens a fresh window.
	now = now.Add(time.Minute + time.Second)

	dec := limiter.Check("10.0.0.1")
	require.True(t, dec.Allowed)
	require.Equal(t, 1, dec.Remaining)
	require.Equal(t, time.Minute, dec.ResetIn)
}

func TestRateLimiterClientsAreIndependent(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(1, time.Minute)
	limiter.Clock = func() time.Time { return now }

	require.True(t, limiter.Check("10.0.0.1").Allowed)
	require.False(t, limiter.Check("10.0.0.1").Allowed)
	require.True(t, limiter.Check("10.0.0.2").Allowed)
}

func TestRateLimiterNoDoubleAdmissionAtBoundary(t *testing.T) {
	limiter := NewRateLimiter(10, time.Minute)

	// Consume up to count = limit-1.
	for i := 0; i < 9; i++ {
		require.True(t, limiter.Check("10.0.0.1").Allowed)
	}

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			results[idx] = limiter.Check("10.0.0.1").Allowed
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, allowed := range results {
		if allowed {
			admitted++
		}
	}
	require.Equal(t, 1, admitted, "exactly one of two concurrent requests at the boundary may pass")
}

func TestRateLimiterSweepEvictsExpiredRecords(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	limiter := NewRateLimiter(5, time.Minute)
	limiter.Clock = func() time.Time { return now }

	limiter.Check("10.0.0.1")
	limiter.Check("10.0.0.2")
	require.Equal(t, 2, limiter.Tracked())

	// Nothing has expired yet.
	require.Equal(t, 0, limiter.Sweep())
	require.Equal(t, 2, limiter.Tracked())

	now = now.Add(2 * time.Minute)
	require.Equal(t, 2, limiter.Sweep())
	require.Equal(t, 0, limiter.Tracked())
}

func TestRateLimiterSweeperStopsOnCancel(t *testing.T) {
	limiter := NewRateLimiter(5, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	limiter.StartSweeper(ctx, time.Millisecond)

	limiter.Check("10.0.0.1")
	cancel()

	// A cancelled sweeper must not panic or keep evicting; we only assert it
	// exits by letting the race detector flag misuse.
	time.Sleep(5 * time.Millisecond)
}
