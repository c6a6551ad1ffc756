package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAPICSPConfig(t *testing.T) {
	cfg := APICSPConfig()

	if len(cfg.DefaultSrc) != 1 || cfg.DefaultSrc[0] != "'none'" {
		t.Errorf("expected default-src 'none', got %v", cfg.DefaultSrc)
	}
	if len(cfg.FrameAncestors) != 1 || cfg.FrameAncestors[0] != "'none'" {
		t.Errorf("expected frame-ancestors 'none', got %v", cfg.FrameAncestors)
	}
}

func TestBuildCSPHeader(t *testing.T) {
	tests := []struct {
		name     string
		cfg      CSPConfig
		contains []string
	}{
		{
			name: "api config",
			cfg:  APICSPConfig(),
			contains: []string{
				"default-src 'none'",
				"frame-ancestors 'none'",
				"base-uri 'none'",
				"form-action 'none'",
			},
		},
		{
			name: "connect sources",
			cfg: CSPConfig{
				DefaultSrc: []string{"'self'"},
				ConnectSrc: []string{"'self'", "wss://stream.example.com"},
			},
			contains: []string{
				"default-src 'self'",
				"connect-src 'self' wss://stream.example.com",
			},
		},
		{
			name: "upgrade insecure requests",
			cfg: CSPConfig{
				DefaultSrc:              []string{"'self'"},
				UpgradeInsecureRequests: true,
			},
			contains: []string{
				"upgrade-insecure-requests",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			header := tt.cfg.BuildCSPHeader()
			for _, want := range tt.contains {
				if !strings.Contains(header, want) {
					t.Errorf("header %q missing directive %q", header, want)
				}
			}
		})
	}
}

func TestBuildCSPHeaderEmpty(t *testing.T) {
	if header := (CSPConfig{}).BuildCSPHeader(); header != "" {
		t.Errorf("empty config should produce empty header, got %q", header)
	}
}

func TestSecurityHeadersWithCSP(t *testing.T) {
	handler := SecurityHeadersWithCSP(APICSPConfig(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	expected := map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"X-XSS-Protection":       "1; mode=block",
		"Referrer-Policy":        "strict-origin-when-cross-origin",
	}
	for header, want := range expected {
		if got := resp.Header.Get(header); got != want {
			t.Errorf("header %s = %q, want %q", header, got, want)
		}
	}

	if csp := resp.Header.Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'none'") {
		t.Errorf("CSP header missing default-src 'none': %q", csp)
	}
}
