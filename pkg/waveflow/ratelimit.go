package waveflow

import (
	"context"
	"sync"
	"time"
)

// tokenBucket paces outgoing calls. A call that finds the bucket empty waits
// for the next token instead of failing, so throttling never turns into a
// retry or an extra error.
type tokenBucket struct {
	mu         sync.Mutex
	rate       float64 // tokens per second
	capacity   float64 // maximum burst size
	tokens     float64
	lastRefill time.Time

	now func() time.Time
}

func newTokenBucket(rps float64, burst int) *tokenBucket {
	if burst <= 0 {
		burst = max(int(rps), 1)
	}
	return &tokenBucket{
		rate:       rps,
		capacity:   float64(burst),
		tokens:     float64(burst),
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// reserve consumes one token and returns how long the caller must wait
// before the token is usable. The balance may go negative; later callers
// queue behind it.
func (tb *tokenBucket) reserve() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	tb.tokens--
	if tb.tokens >= 0 {
		return 0
	}
	return time.Duration(-tb.tokens / tb.rate * float64(time.Second))
}

// cancel returns a token taken by reserve when the caller gave up waiting.
func (tb *tokenBucket) cancel() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = min(tb.tokens+1, tb.capacity)
}

func (tb *tokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.tokens+elapsed*tb.rate, tb.capacity)
	tb.lastRefill = now
}

// wait blocks until a token is available or ctx is done.
func (tb *tokenBucket) wait(ctx context.Context) error {
	delay := tb.reserve()
	if delay <= 0 {
		return nil
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		tb.cancel()
		return ctx.Err()
	}
}
