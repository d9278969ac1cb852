package ratelimit

import (
	"context"
	"sync"
	"time"
)

// TokenBucket implements a token bucket rate limiter
type TokenBucket struct {
	capacity   int64
	tokens     int64
	refillRate int64 // tokens per second
	lastRefill time.Time
	now        func() time.Time
	mutex      sync.Mutex
}

// NewTokenBucket creates a new token bucket with the specified capacity and refill rate
func NewTokenBucket(capacity, refillRate int64) *TokenBucket {
	return newTokenBucket(capacity, refillRate, time.Now)
}

func newTokenBucket(capacity, refillRate int64, now func() time.Time) *TokenBucket {
	if refillRate <= 0 {
		refillRate = 1
	}
	if capacity <= 0 {
		capacity = 1
	}
	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity, // Start with full bucket
		refillRate: refillRate,
		lastRefill: now(),
		now:        now,
	}
}

// Allow checks if a token is available and consumes it if so
func (tb *TokenBucket) Allow() bool {
	ok, _ := tb.take()
	return ok
}

// Wait blocks until a token is available or the context is done
func (tb *TokenBucket) Wait(ctx context.Context) error {
	for {
		ok, delay := tb.take()
		if ok {
			return nil
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes a token, or reports how long until the next one is due
func (tb *TokenBucket) take() (bool, time.Duration) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	tb.refill()

	if tb.tokens > 0 {
		tb.tokens--
		return true, 0
	}

	perToken := time.Second / time.Duration(tb.refillRate)
	delay := perToken - tb.now().Sub(tb.lastRefill)
	if delay < time.Millisecond {
		delay = time.Millisecond
	}
	return false, delay
}

// refill adds tokens based on time elapsed since last refill
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tokensToAdd := int64(elapsed * float64(tb.refillRate))
	if tokensToAdd > 0 {
		tb.tokens = min(tb.capacity, tb.tokens+tokensToAdd)
		tb.lastRefill = now
	}
}

// giveBack returns a token consumed by a request that was denied elsewhere
func (tb *TokenBucket) giveBack() {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	if tb.tokens < tb.capacity {
		tb.tokens++
	}
}

// idleSince reports when the bucket last refilled
func (tb *TokenBucket) idleSince() time.Time {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return tb.lastRefill
}

// TwoTierRateLimiter implements both global and per-IP rate limiting
type TwoTierRateLimiter struct {
	globalBucket  *TokenBucket
	ipBuckets     sync.Map // map[string]*TokenBucket
	perIPCapacity int64
	perIPRate     int64
	now           func() time.Time

	stopOnce sync.Once
	stop     chan struct{}
}

// NewTwoTierRateLimiter creates a new two-tier rate limiter
func NewTwoTierRateLimiter(globalCapacity, globalRate, perIPCapacity, perIPRate int64) *TwoTierRateLimiter {
	limiter := newTwoTierRateLimiter(globalCapacity, globalRate, perIPCapacity, perIPRate, time.Now)

	go limiter.cleanupLoop(10*time.Minute, 30*time.Minute)

	return limiter
}

func newTwoTierRateLimiter(globalCapacity, globalRate, perIPCapacity, perIPRate int64, now func() time.Time) *TwoTierRateLimiter {
	return &TwoTierRateLimiter{
		globalBucket:  newTokenBucket(globalCapacity, globalRate, now),
		perIPCapacity: perIPCapacity,
		perIPRate:     perIPRate,
		now:           now,
		stop:          make(chan struct{}),
	}
}

// Allow checks both global and per-IP rate limits
func (trl *TwoTierRateLimiter) Allow(clientIP string) bool {
	if !trl.globalBucket.Allow() {
		return false
	}

	if !trl.getOrCreateIPBucket(clientIP).Allow() {
		// The global token was consumed for a request that cannot proceed
		trl.globalBucket.giveBack()
		return false
	}

	return true
}

// Wait blocks until a token becomes available for the given IP
func (trl *TwoTierRateLimiter) Wait(ctx context.Context, clientIP string) error {
	if trl.Allow(clientIP) {
		return nil
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if trl.Allow(clientIP) {
				return nil
			}
		}
	}
}

// Close stops the background bucket cleanup
func (trl *TwoTierRateLimiter) Close() {
	trl.stopOnce.Do(func() {
		close(trl.stop)
	})
}

// getOrCreateIPBucket gets or creates a token bucket for the given IP
func (trl *TwoTierRateLimiter) getOrCreateIPBucket(clientIP string) *TokenBucket {
	if bucket, ok := trl.ipBuckets.Load(clientIP); ok {
		return bucket.(*TokenBucket)
	}

	newBucket := newTokenBucket(trl.perIPCapacity, trl.perIPRate, trl.now)
	actual, _ := trl.ipBuckets.LoadOrStore(clientIP, newBucket)

	return actual.(*TokenBucket)
}

func (trl *TwoTierRateLimiter) cleanupLoop(interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-trl.stop:
			return
		case <-ticker.C:
			trl.removeIdleBuckets(maxIdle)
		}
	}
}

// removeIdleBuckets drops per-IP buckets that have not been used for maxIdle
func (trl *TwoTierRateLimiter) removeIdleBuckets(maxIdle time.Duration) int {
	cutoff := trl.now().Add(-maxIdle)
	removed := 0

	trl.ipBuckets.Range(func(key, value interface{}) bool {
		if value.(*TokenBucket).idleSince().Before(cutoff) {
			trl.ipBuckets.Delete(key)
			removed++
		}
		return true
	})

	return removed
}
