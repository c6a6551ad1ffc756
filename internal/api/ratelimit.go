package api

import (
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	RequestsPerMinute int
	BurstSize         int
}

// tokenBucket implements a token bucket rate limiter.
type tokenBucket struct {
	mu         sync.Mutex
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func newTokenBucket(capacity, refillRate float64) *tokenBucket {
	return &tokenBucket{
		tokens:     capacity,
		capacity:   capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

func (tb *tokenBucket) refillLocked(now time.Time) {
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = min(tb.capacity, tb.tokens+elapsed*tb.refillRate)
	tb.lastRefill = now
}

// take consumes one token if available and returns the outcome together
// with the remaining token count and the time the bucket will be full.
func (tb *tokenBucket) take() (allowed bool, remaining int, reset time.Time) {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	tb.refillLocked(now)

	if tb.tokens >= 1.0 {
		tb.tokens--
		allowed = true
	}

	reset = now
	if tb.tokens < tb.capacity {
		secondsUntilFull := (tb.capacity - tb.tokens) / tb.refillRate
		reset = now.Add(time.Duration(secondsUntilFull * float64(time.Second)))
	}
	return allowed, int(tb.tokens), reset
}

// RateLimiter manages per-IP rate limiting.
type RateLimiter struct {
	mu         sync.RWMutex
	buckets    map[string]*tokenBucket
	config     RateLimiterConfig
	cleanupTTL time.Duration
}

// NewRateLimiter creates a new rate limiter with the given configuration.
func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	rl := &RateLimiter{
		buckets:    make(map[string]*tokenBucket),
		config:     config,
		cleanupTTL: 5 * time.Minute,
	}
	go rl.cleanup()
	return rl
}

// getBucket returns the token bucket for a given IP, creating if necessary.
func (rl *RateLimiter) getBucket(ip string) *tokenBucket {
	rl.mu.RLock()
	bucket, exists := rl.buckets[ip]
	rl.mu.RUnlock()
	if exists {
		return bucket
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if bucket, exists := rl.buckets[ip]; exists {
		return bucket
	}

	bucket = newTokenBucket(
		float64(rl.config.BurstSize),
		float64(rl.config.RequestsPerMinute)/60.0,
	)
	rl.buckets[ip] = bucket
	return bucket
}

// cleanup periodically removes buckets idle for longer than the TTL.
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for ip, bucket := range rl.buckets {
			bucket.mu.Lock()
			idle := now.Sub(bucket.lastRefill)
			bucket.mu.Unlock()
			if idle > rl.cleanupTTL {
				delete(rl.buckets, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// Allow checks if a request from the given IP should be allowed.
func (rl *RateLimiter) Allow(ip string) bool {
	allowed, _, _ := rl.getBucket(ip).take()
	return allowed
}

// Middleware returns an HTTP middleware that applies rate limiting.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)
		allowed, remaining, reset := rl.getBucket(ip).take()

		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", rl.config.RequestsPerMinute))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", reset.Unix()))

		if !allowed {
			retryAfter := int(time.Until(reset).Seconds()) + 1
			w.Header().Set("Retry-After", fmt.Sprintf("%d", retryAfter))
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				fmt.Sprintf("Rate limit exceeded. Try again in %d seconds.", retryAfter))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// getClientIP extracts the client IP address from the request. It checks
// X-Forwarded-For and X-Real-IP headers before falling back to RemoteAddr,
// validating the IP format at every step.
func getClientIP(r *http.Request) string {
	// X-Forwarded-For: client, proxy1, proxy2 - take the leftmost IP.
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		clientIP := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if isValidIP(clientIP) {
			return clientIP
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		if isValidIP(realIP) {
			return realIP
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RemoteAddr may already be a bare IP without a port.
		ip = r.RemoteAddr
	}
	if isValidIP(ip) {
		return ip
	}
	return "unknown"
}

// isValidIP checks if a string is a valid IPv4 or IPv6 address.
func isValidIP(ipStr string) bool {
	return net.ParseIP(ipStr) != nil
}
