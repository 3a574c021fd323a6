// Package ratelimit throttles /status callers with a per-client token bucket.
// Every status request takes a CPU sample and dials the probe targets, so a
// misbehaving poller can be held back without affecting other clients.
package ratelimit

import "time"

// Limiter defines the rate limiting contract. Implementations must be safe for
// concurrent use.
type Limiter interface {
	// Allow reports whether a request identified by key may proceed, along
	// with the bucket state for response headers.
	Allow(key string) (allowed bool, info Info)

	// Close stops background goroutines and releases resources.
	Close()
}

// Info contains rate limit state for populating response headers.
type Info struct {
	Limit      int           // Maximum requests per minute
	Remaining  int           // Approximate tokens remaining
	ResetAt    time.Time     // When the bucket will be full again
	RetryAfter time.Duration // How long to wait (meaningful only when denied)
}
