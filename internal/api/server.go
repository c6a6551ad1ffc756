// Package api provides the Cadence REST and WebSocket API server.
//
// The server exposes the pattern library over /v1/patterns, one-shot
// sequence evaluation over /v1/match, and incremental evaluation through
// sessions: POST /v1/sessions creates a session, and the session's /stream
// endpoint upgrades to a WebSocket that consumes one token per message and
// answers each with the updated verdict.
package api

import (
	"fmt"
	"net/http"
	"os"

	"github.com/FocuswithJustin/Cadence/core/library"
	"github.com/FocuswithJustin/Cadence/internal/logging"
	"github.com/FocuswithJustin/Cadence/internal/server"
)

// Version is the API service version reported by the root endpoint.
const Version = "1.0.0"

// Server wires the pattern library and session store to HTTP handlers.
type Server struct {
	cfg      Config
	library  *library.Library
	sessions *sessionStore
}

// NewServer builds a server around an already-open library. The caller
// retains ownership of the library.
func NewServer(cfg Config, lib *library.Library) *Server {
	return &Server{
		cfg:      cfg,
		library:  lib,
		sessions: newSessionStore(cfg.MaxSessions, cfg.SessionTTL),
	}
}

// Close releases the server's session store. It does not close the library.
func (srv *Server) Close() {
	srv.sessions.close()
}

// Handler returns the server's complete handler with the middleware chain
// applied: security headers, authentication, rate limiting, CORS, and
// request logging.
func (srv *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", srv.handleRoot)
	mux.HandleFunc("/health", srv.handleHealth)
	mux.HandleFunc("/v1/patterns", srv.handlePatterns)
	mux.HandleFunc("/v1/patterns/", srv.handlePatternByName)
	mux.HandleFunc("/v1/match", srv.handleMatch)
	mux.HandleFunc("/v1/sessions", srv.handleSessions)
	mux.HandleFunc("/v1/sessions/", srv.handleSessionByID)

	var handler http.Handler = server.SecurityHeadersWithCSP(server.APICSPConfig(), mux)

	if srv.cfg.Auth.Enabled {
		handler = AuthMiddleware(srv.cfg.Auth, handler)
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", true,
			"note", "API key required")
	} else {
		logging.SecurityEvent("authentication_configured", "api",
			"enabled", false,
			"note", "all requests allowed")
	}

	if srv.cfg.RateLimitRequests > 0 {
		rateLimitConfig := RateLimiterConfig{
			RequestsPerMinute: srv.cfg.RateLimitRequests,
			BurstSize:         srv.cfg.RateLimitBurst,
		}
		if rateLimitConfig.BurstSize == 0 {
			rateLimitConfig.BurstSize = 10 // Default burst size
		}
		handler = NewRateLimiter(rateLimitConfig).Middleware(handler)
		logging.Info("rate limiting enabled",
			"requests_per_minute", rateLimitConfig.RequestsPerMinute,
			"burst_size", rateLimitConfig.BurstSize)
	}

	handler = server.CORSMiddlewareWithConfig(server.CORSConfig{
		AllowedOrigins: srv.cfg.AllowedOrigins,
	}, handler)
	if len(srv.cfg.AllowedOrigins) > 0 {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "restricted",
			"allowed_origins_count", len(srv.cfg.AllowedOrigins))
	} else {
		logging.SecurityEvent("cors_configured", "api",
			"mode", "permissive",
			"note", "allowing all origins (*) - consider restricting for production")
	}

	return logging.CombinedMiddleware(handler)
}

// Start opens the pattern library and runs the API server with the given
// configuration. It blocks until the listener fails.
func Start(cfg Config) error {
	if err := ValidateAuthConfig(cfg.Auth); err != nil {
		return fmt.Errorf("invalid auth config: %w", err)
	}
	if cfg.TLS.Enabled {
		if cfg.TLS.CertFile == "" || cfg.TLS.KeyFile == "" {
			return fmt.Errorf("TLS enabled but cert or key file not specified")
		}
		if _, err := os.Stat(cfg.TLS.CertFile); err != nil {
			return fmt.Errorf("TLS cert file not found: %w", err)
		}
		if _, err := os.Stat(cfg.TLS.KeyFile); err != nil {
			return fmt.Errorf("TLS key file not found: %w", err)
		}
	}

	lib, err := library.Open(cfg.LibraryPath)
	if err != nil {
		return fmt.Errorf("opening pattern library: %w", err)
	}
	defer lib.Close()

	srv := NewServer(cfg, lib)
	defer srv.Close()

	protocol := "http"
	wsProtocol := "ws"
	if cfg.TLS.Enabled {
		protocol = "https"
		wsProtocol = "wss"
		logging.Info("TLS enabled", "cert_file", cfg.TLS.CertFile)
	} else {
		logging.Warn("TLS disabled - using plain HTTP",
			"recommendation", "consider using TLS or reverse proxy for production")
	}
	logging.ServerStartup("rest_api", protocol, cfg.Port,
		"websocket_protocol", wsProtocol,
		"library_path", server.AbsPath(cfg.LibraryPath))

	addr := fmt.Sprintf(":%d", cfg.Port)
	if cfg.TLS.Enabled {
		return http.ListenAndServeTLS(addr, cfg.TLS.CertFile, cfg.TLS.KeyFile, srv.Handler())
	}
	return http.ListenAndServe(addr, srv.Handler())
}
