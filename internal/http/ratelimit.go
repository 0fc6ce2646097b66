package http

import (
	"sync"
	"time"
)

// rateLimiter throttles mutating requests per client IP using a fixed
// window counter. Reads are never limited.
type rateLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	buckets map[string]*bucket

	done     chan struct{}
	stopOnce sync.Once
}

// bucket tracks one client's current window.
type bucket struct {
	windowStart time.Time
	count       int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		limit:   60,
		window:  time.Minute,
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	go rl.sweepLoop()
	return rl
}

// allow records one request from clientIP and reports whether it is
// within the window's budget.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.buckets[clientIP]
	if !ok || now.Sub(b.windowStart) >= rl.window {
		rl.buckets[clientIP] = &bucket{windowStart: now, count: 1}
		return true
	}

	b.count++
	return b.count <= rl.limit
}

// sweepLoop periodically drops buckets whose window has long passed so
// the map does not grow with every IP ever seen.
func (rl *rateLimiter) sweepLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

func (rl *rateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-2 * rl.window)
	for ip, b := range rl.buckets {
		if b.windowStart.Before(cutoff) {
			delete(rl.buckets, ip)
		}
	}
}

// stop terminates the sweep goroutine. Safe to call more than once.
func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}
