// internal/ratelimit/limiter.go
package ratelimit

import (
	"context"
	"sync"

	urlutil "github.com/law-makers/offers/internal/utils/url"
	"golang.org/x/time/rate"
)

// RateLimiter defines the interface for rate limiting implementations.
//
// Navigations are throttled per registrable domain so that concurrent
// workers do not hit one bank's site in parallel bursts.
type RateLimiter interface {
	// Wait blocks until a navigation to the given URL can proceed.
	// If the context is cancelled before the rate limit allows, an error is returned.
	Wait(ctx context.Context, urlStr string) error
}

// DomainLimiter provides per-domain rate limiting using the token bucket algorithm.
// "offers.bank.co.in" and "www.bank.co.in" share a bucket.
type DomainLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	perHost  rate.Limit // Navigations per second per domain
	burst    int        // Burst capacity
}

// NewDomainLimiter creates a new rate limiter with the specified per-domain rate
func NewDomainLimiter(requestsPerSecond float64, burst int) *DomainLimiter {
	if requestsPerSecond <= 0 {
		requestsPerSecond = 1.0
	}
	if burst <= 0 {
		burst = 2
	}

	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		perHost:  rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// Wait blocks until the navigation to the given URL can proceed according to rate limits
func (dl *DomainLimiter) Wait(ctx context.Context, urlStr string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	domain := Key(urlStr)
	if domain == "" {
		// Invalid URL, let it proceed (navigation will fail)
		return nil
	}

	return dl.getLimiter(domain).Wait(ctx)
}

// getLimiter returns or creates a rate limiter for the given domain
func (dl *DomainLimiter) getLimiter(domain string) *rate.Limiter {
	dl.mu.RLock()
	limiter, exists := dl.limiters[domain]
	dl.mu.RUnlock()

	if exists {
		return limiter
	}

	dl.mu.Lock()
	defer dl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := dl.limiters[domain]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(dl.perHost, dl.burst)
	dl.limiters[domain] = limiter

	return limiter
}

// Key returns the bucket key for a URL: its registrable domain.
func Key(urlStr string) string {
	return urlutil.RegistrableDomain(urlutil.Hostname(urlStr))
}
