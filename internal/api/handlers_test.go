package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/FocuswithJustin/Cadence/core/library"
)

// envelope mirrors APIResponse for decoding test responses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	lib, err := library.Open(filepath.Join(t.TempDir(), "patterns.db"))
	if err != nil {
		t.Fatalf("opening test library: %v", err)
	}
	srv := NewServer(cfg, lib)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
		lib.Close()
	})
	return srv, ts
}

func doRequest(t *testing.T, method, url, body string) (*http.Response, envelope) {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return resp, env
}

func wantErrorCode(t *testing.T, env envelope, code string) {
	t.Helper()
	if env.Success {
		t.Fatal("expected an error response")
	}
	if env.Error == nil || env.Error.Code != code {
		t.Fatalf("error = %+v, want code %s", env.Error, code)
	}
}

func TestRootAndHealth(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, env := doRequest(t, http.MethodGet, ts.URL+"/", "")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Errorf("root: status %d success %v", resp.StatusCode, env.Success)
	}

	resp, env = doRequest(t, http.MethodGet, ts.URL+"/health", "")
	if resp.StatusCode != http.StatusOK || !env.Success {
		t.Errorf("health: status %d success %v", resp.StatusCode, env.Success)
	}
	var health struct {
		Status   string `json:"status"`
		Sessions int    `json:"sessions"`
	}
	if err := json.Unmarshal(env.Data, &health); err != nil {
		t.Fatalf("decoding health: %v", err)
	}
	if health.Status != "ok" {
		t.Errorf("health status = %q, want ok", health.Status)
	}

	resp, _ = doRequest(t, http.MethodGet, ts.URL+"/no/such/endpoint", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown endpoint: status %d, want 404", resp.StatusCode)
	}
}

func TestPatternLifecycle(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	patternsURL := ts.URL + "/v1/patterns"

	resp, env := doRequest(t, http.MethodPost, patternsURL,
		`{"name": "http-get", "source": "seq(lit(\"GET\"), oneOrMore)"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add: status %d, body %+v", resp.StatusCode, env.Error)
	}
	var added library.Pattern
	if err := json.Unmarshal(env.Data, &added); err != nil {
		t.Fatalf("decoding pattern: %v", err)
	}
	if added.Name != "http-get" || added.Digest == "" {
		t.Errorf("added = %+v", added)
	}

	resp, env = doRequest(t, http.MethodGet, patternsURL, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list: status %d", resp.StatusCode)
	}
	var listed []library.Pattern
	if err := json.Unmarshal(env.Data, &listed); err != nil {
		t.Fatalf("decoding list: %v", err)
	}
	if len(listed) != 1 {
		t.Errorf("list returned %d patterns, want 1", len(listed))
	}

	resp, _ = doRequest(t, http.MethodGet, patternsURL+"/http-get", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("get: status %d", resp.StatusCode)
	}

	resp, env = doRequest(t, http.MethodPost, patternsURL,
		`{"name": "http-get", "source": "unique"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate add: status %d, want 409", resp.StatusCode)
	}
	wantErrorCode(t, env, "ALREADY_EXISTS")

	resp, env = doRequest(t, http.MethodPost, patternsURL,
		`{"name": "broken", "source": "seq(lit("}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("broken source: status %d, want 400", resp.StatusCode)
	}

	resp, env = doRequest(t, http.MethodPost, patternsURL,
		`{"name": "bad name", "source": "unique"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad name: status %d, want 400", resp.StatusCode)
	}
	wantErrorCode(t, env, "VALIDATION_FAILED")

	resp, _ = doRequest(t, http.MethodDelete, patternsURL+"/http-get", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("delete: status %d", resp.StatusCode)
	}

	resp, env = doRequest(t, http.MethodGet, patternsURL+"/http-get", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("get after delete: status %d, want 404", resp.StatusCode)
	}
	wantErrorCode(t, env, "NOT_FOUND")
}

func TestMatchEndpoint(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	matchURL := ts.URL + "/v1/match"

	type matchResult struct {
		Tokens  int         `json:"tokens"`
		Verdict VerdictInfo `json:"verdict"`
	}
	decode := func(env envelope) matchResult {
		t.Helper()
		var res matchResult
		if err := json.Unmarshal(env.Data, &res); err != nil {
			t.Fatalf("decoding match result: %v", err)
		}
		return res
	}

	resp, env := doRequest(t, http.MethodPost, matchURL,
		`{"pattern": "seq(lit(1), lit(2))", "tokens": [1, 2]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("match: status %d, error %+v", resp.StatusCode, env.Error)
	}
	if res := decode(env); !res.Verdict.IsMatching || res.Tokens != 2 {
		t.Errorf("match result = %+v, want matching over 2 tokens", res)
	}

	resp, env = doRequest(t, http.MethodPost, matchURL,
		`{"pattern": "seq(lit(\"GET\"), lit(\"/index\"))", "text": "GET /index"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("text match: status %d", resp.StatusCode)
	}
	if res := decode(env); !res.Verdict.IsMatching {
		t.Errorf("text match = %+v, want matching", res)
	}

	resp, env = doRequest(t, http.MethodPost, matchURL,
		`{"pattern": "lit(1)", "tokens": [2]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("mismatch: status %d", resp.StatusCode)
	}
	if res := decode(env); res.Verdict.Verdict != "invalid" {
		t.Errorf("mismatch verdict = %q, want invalid", res.Verdict.Verdict)
	}

	// Stored patterns are matched by name.
	doRequest(t, http.MethodPost, ts.URL+"/v1/patterns",
		`{"name": "ascending-run", "source": "ascending"}`)
	resp, env = doRequest(t, http.MethodPost, matchURL,
		`{"name": "ascending-run", "tokens": [1, 2, 3]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stored match: status %d", resp.StatusCode)
	}
	if res := decode(env); !res.Verdict.IsMatching {
		t.Errorf("stored match = %+v, want matching", res)
	}

	resp, env = doRequest(t, http.MethodPost, matchURL,
		`{"name": "missing", "tokens": [1]}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown name: status %d, want 404", resp.StatusCode)
	}

	resp, env = doRequest(t, http.MethodPost, matchURL,
		`{"pattern": "lit(1)", "name": "x", "tokens": [1]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("both pattern and name: status %d, want 400", resp.StatusCode)
	}

	resp, env = doRequest(t, http.MethodPost, matchURL,
		`{"pattern": "lit(1)", "tokens": [[1, 2]]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("composite token: status %d, want 400", resp.StatusCode)
	}

	resp, env = doRequest(t, http.MethodPost, matchURL,
		`{"pattern": "lit(1)"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("no tokens: status %d, want 400", resp.StatusCode)
	}
}

func TestSessionLifecycle(t *testing.T) {
	_, ts := newTestServer(t, Config{})
	sessionsURL := ts.URL + "/v1/sessions"

	resp, env := doRequest(t, http.MethodPost, sessionsURL,
		`{"pattern": "seq(lit(1), lit(2))"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create: status %d, error %+v", resp.StatusCode, env.Error)
	}
	var created SessionInfo
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatalf("decoding session: %v", err)
	}
	if created.SessionID == "" || created.Pattern != "inline" {
		t.Errorf("created = %+v", created)
	}
	if created.Verdict.Verdict != "continue" {
		t.Errorf("fresh session verdict = %q, want continue", created.Verdict.Verdict)
	}

	statusURL := fmt.Sprintf("%s/%s", sessionsURL, created.SessionID)
	resp, env = doRequest(t, http.MethodGet, statusURL, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: %d", resp.StatusCode)
	}

	resp, _ = doRequest(t, http.MethodDelete, statusURL, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close: %d", resp.StatusCode)
	}

	resp, env = doRequest(t, http.MethodGet, statusURL, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status after close: %d, want 404", resp.StatusCode)
	}
	wantErrorCode(t, env, "SESSION_NOT_FOUND")

	resp, env = doRequest(t, http.MethodGet, sessionsURL+"/not-a-uuid", "")
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id: %d, want 400", resp.StatusCode)
	}
	wantErrorCode(t, env, "INVALID_SESSION_ID")

	resp, env = doRequest(t, http.MethodPost, sessionsURL, `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty create: %d, want 400", resp.StatusCode)
	}
}

func TestSessionCap(t *testing.T) {
	_, ts := newTestServer(t, Config{MaxSessions: 1})
	sessionsURL := ts.URL + "/v1/sessions"

	resp, _ := doRequest(t, http.MethodPost, sessionsURL, `{"pattern": "unique"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first create: status %d", resp.StatusCode)
	}

	resp, env := doRequest(t, http.MethodPost, sessionsURL, `{"pattern": "unique"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("second create: status %d, want 503", resp.StatusCode)
	}
	wantErrorCode(t, env, "TOO_MANY_SESSIONS")
}
