package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestTokenBucketExhaustion(t *testing.T) {
	bucket := newTokenBucket(3, 0.001) // negligible refill during the test

	for i := 0; i < 3; i++ {
		if allowed, _, _ := bucket.take(); !allowed {
			t.Fatalf("request %d should be allowed within burst", i+1)
		}
	}
	if allowed, _, _ := bucket.take(); allowed {
		t.Error("request beyond burst should be denied")
	}
}

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 2})

	if !rl.Allow("10.0.0.1") {
		t.Error("first request should be allowed")
	}
	if !rl.Allow("10.0.0.1") {
		t.Error("second request should be allowed within burst")
	}
	if rl.Allow("10.0.0.1") {
		t.Error("third request should exceed burst")
	}

	// Separate IPs get separate buckets.
	if !rl.Allow("10.0.0.2") {
		t.Error("different IP should have its own bucket")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{RequestsPerMinute: 60, BurstSize: 1})
	handler := rl.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/v1/patterns", nil)
	req.RemoteAddr = "192.168.1.5:12345"

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Limit") != "60" {
		t.Errorf("X-RateLimit-Limit = %q, want 60", w.Header().Get("X-RateLimit-Limit"))
	}

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request should be limited, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("limited response should carry Retry-After")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remoteAddr string
		headers    map[string]string
		want       string
	}{
		{
			name:       "remote addr only",
			remoteAddr: "203.0.113.7:44321",
			want:       "203.0.113.7",
		},
		{
			name:       "x-forwarded-for",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "198.51.100.4, 10.0.0.1"},
			want:       "198.51.100.4",
		},
		{
			name:       "invalid x-forwarded-for falls back",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Forwarded-For": "not-an-ip"},
			want:       "10.0.0.1",
		},
		{
			name:       "x-real-ip",
			remoteAddr: "10.0.0.1:1234",
			headers:    map[string]string{"X-Real-IP": "198.51.100.9"},
			want:       "198.51.100.9",
		},
		{
			name:       "unparseable remote addr",
			remoteAddr: "garbage",
			want:       "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := getClientIP(req); got != tt.want {
				t.Errorf("getClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}
