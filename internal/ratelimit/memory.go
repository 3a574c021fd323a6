package ratelimit

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// client is the bucket of one caller and when it last asked for a token.
type client struct {
	bucket *rate.Limiter
	seen   time.Time
}

// MemoryLimiter keeps one token bucket per client address. Buckets idle for
// more than twice the cleanup interval are evicted by a background goroutine.
type MemoryLimiter struct {
	perMinute int
	refill    rate.Limit
	burst     int
	sweep     time.Duration

	mu       sync.Mutex
	clients  map[string]*client
	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryLimiter creates a limiter allowing requestsPerMinute per client with
// the given burst. The caller must Close it.
func NewMemoryLimiter(requestsPerMinute int, burst int, cleanupInterval time.Duration) *MemoryLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	if cleanupInterval <= 0 {
		cleanupInterval = time.Minute
	}

	m := &MemoryLimiter{
		perMinute: requestsPerMinute,
		refill:    rate.Limit(float64(requestsPerMinute) / 60),
		burst:     burst,
		sweep:     cleanupInterval,
		clients:   make(map[string]*client),
		stop:      make(chan struct{}),
	}
	go m.sweepLoop()
	return m
}

// Len returns the number of tracked clients.
func (m *MemoryLimiter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}

// Allow consumes a token from the bucket for key.
func (m *MemoryLimiter) Allow(key string) (bool, Info) {
	now := time.Now()
	bucket := m.bucketFor(key, now)

	allowed := bucket.AllowN(now, 1)
	tokens := bucket.TokensAt(now)

	info := Info{
		Limit:     m.perMinute,
		Remaining: int(math.Max(0, math.Floor(tokens))),
		ResetAt:   now.Add(m.refillTime(float64(m.burst) - tokens)),
	}
	if !allowed {
		info.RetryAfter = m.refillTime(1 - tokens)
	}
	return allowed, info
}

// bucketFor returns the bucket for key, creating it on first use.
func (m *MemoryLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.clients[key]
	if !ok {
		c = &client{bucket: rate.NewLimiter(m.refill, m.burst)}
		m.clients[key] = c
	}
	c.seen = now
	return c.bucket
}

// refillTime is how long the bucket takes to regain the given number of tokens.
func (m *MemoryLimiter) refillTime(tokens float64) time.Duration {
	if tokens <= 0 {
		return 0
	}
	return time.Duration(tokens / float64(m.refill) * float64(time.Second))
}

// Close stops the background sweep. It is safe to call more than once.
func (m *MemoryLimiter) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// sweepLoop evicts idle clients every sweep interval until Close.
func (m *MemoryLimiter) sweepLoop() {
	ticker := time.NewTicker(m.sweep)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case now := <-ticker.C:
			m.evictIdle(now)
		}
	}
}

// evictIdle drops clients not seen for two sweep intervals.
func (m *MemoryLimiter) evictIdle(now time.Time) {
	cutoff := now.Add(-2 * m.sweep)

	m.mu.Lock()
	defer m.mu.Unlock()
	for key, c := range m.clients {
		if c.seen.Before(cutoff) {
			delete(m.clients, key)
		}
	}
}
