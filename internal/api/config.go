package api

import "time"

// Config holds server configuration.
type Config struct {
	Port              int
	LibraryPath       string        // SQLite pattern library location
	RateLimitRequests int           // Requests per minute (0 = disabled)
	RateLimitBurst    int           // Burst size
	Auth              AuthConfig    // Authentication configuration
	TLS               TLSConfig     // TLS configuration
	AllowedOrigins    []string      // CORS and WebSocket origins (empty = allow all)
	MaxSessions       int           // Concurrent session cap (0 = DefaultMaxSessions)
	SessionTTL        time.Duration // Idle session eviction (0 = DefaultSessionTTL)
}

// TLSConfig holds TLS/HTTPS configuration.
type TLSConfig struct {
	Enabled  bool   // Enable HTTPS
	CertFile string // Path to TLS certificate file
	KeyFile  string // Path to TLS private key file
}
