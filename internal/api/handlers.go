package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/Cadence/core/errors"
	"github.com/FocuswithJustin/Cadence/core/library"
	"github.com/FocuswithJustin/Cadence/core/match"
	"github.com/FocuswithJustin/Cadence/core/pattern"
	"github.com/FocuswithJustin/Cadence/core/sqlite"
	"github.com/FocuswithJustin/Cadence/internal/tokenize"
	"github.com/FocuswithJustin/Cadence/internal/validation"
)

// maxRequestBody bounds JSON request bodies.
const maxRequestBody = 1 << 20 // 1 MiB

// APIResponse is the envelope for all JSON responses.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError describes a failed request.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta carries response metadata.
type APIMeta struct {
	Timestamp string `json:"timestamp"`
}

// VerdictInfo is the JSON form of a match verdict.
type VerdictInfo struct {
	Verdict     string `json:"verdict"`
	MayContinue bool   `json:"may_continue"`
	IsMatching  bool   `json:"is_matching"`
	PathCount   int    `json:"path_count"`
}

func verdictInfo(v match.Verdict, pathCount int) VerdictInfo {
	return VerdictInfo{
		Verdict:     v.String(),
		MayContinue: v.MayContinue(),
		IsMatching:  v.IsMatching(),
		PathCount:   pathCount,
	}
}

// SessionInfo is the JSON form of a live session.
type SessionInfo struct {
	SessionID string      `json:"session_id"`
	Pattern   string      `json:"pattern"`
	Tokens    int         `json:"tokens"`
	Verdict   VerdictInfo `json:"verdict"`
	CreatedAt string      `json:"created_at"`
	StreamURL string      `json:"stream_url"`
}

func sessionInfo(s *session) SessionInfo {
	v, paths, tokens := s.snapshot()
	return SessionInfo{
		SessionID: s.id.String(),
		Pattern:   s.pattern,
		Tokens:    tokens,
		Verdict:   verdictInfo(v, paths),
		CreatedAt: s.created.UTC().Format(time.RFC3339),
		StreamURL: fmt.Sprintf("/v1/sessions/%s/stream", s.id),
	}
}

// patternRequest selects a matcher source: either an inline pattern or the
// name of a stored one. Exactly one of the two must be set.
type patternRequest struct {
	Pattern string `json:"pattern,omitempty"`
	Name    string `json:"name,omitempty"`
}

// resolve compiles the requested matcher and returns a label for status
// reporting.
func (pr patternRequest) resolve(lib *library.Library) (match.Matcher[any], string, error) {
	switch {
	case pr.Pattern != "" && pr.Name != "":
		return nil, "", errors.NewValidation("pattern", "set either pattern or name, not both")
	case pr.Pattern != "":
		m, err := pattern.Compile(pr.Pattern)
		return m, "inline", err
	case pr.Name != "":
		m, err := lib.Compile(pr.Name)
		return m, pr.Name, err
	default:
		return nil, "", errors.NewValidation("pattern", "one of pattern or name is required")
	}
}

// matchRequest is the one-shot match payload. Tokens are supplied either as
// a JSON array of scalars or as text split by the named tokenizer.
type matchRequest struct {
	patternRequest
	Tokens    json.RawMessage `json:"tokens,omitempty"`
	Text      string          `json:"text,omitempty"`
	Tokenizer string          `json:"tokenizer,omitempty"` // "fields" (default) or "lines"
}

func (mr matchRequest) tokenize() ([]any, error) {
	switch {
	case mr.Tokens != nil && mr.Text != "":
		return nil, errors.NewValidation("tokens", "set either tokens or text, not both")
	case mr.Tokens != nil:
		return tokenize.JSONArray(mr.Tokens)
	case mr.Text != "":
		switch mr.Tokenizer {
		case "", "fields":
			return tokenize.Fields(mr.Text), nil
		case "lines":
			return tokenize.Lines(mr.Text), nil
		default:
			return nil, errors.NewValidation("tokenizer", "unknown tokenizer "+mr.Tokenizer)
		}
	default:
		return nil, errors.NewValidation("tokens", "one of tokens or text is required")
	}
}

type addPatternRequest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// handleRoot returns service information.
func (srv *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown endpoint")
		return
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"service": "cadence",
		"version": Version,
		"endpoints": []string{
			"/health",
			"/v1/patterns",
			"/v1/match",
			"/v1/sessions",
			"/v1/sessions/{id}/stream",
		},
	})
}

// handleHealth reports server health and storage driver details.
func (srv *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"sessions": srv.sessions.count(),
		"sqlite":   sqlite.GetInfo(),
	})
}

// handlePatterns lists stored patterns or adds a new one.
func (srv *Server) handlePatterns(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		patterns, err := srv.library.List()
		if err != nil {
			respondDomainError(w, err)
			return
		}
		if patterns == nil {
			patterns = []*library.Pattern{}
		}
		respond(w, http.StatusOK, patterns)

	case http.MethodPost:
		var req addPatternRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		p, err := srv.library.Add(req.Name, req.Source)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respond(w, http.StatusCreated, p)

	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET or POST")
	}
}

// handlePatternByName serves /v1/patterns/{name}.
func (srv *Server) handlePatternByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/v1/patterns/")
	if name == "" || strings.Contains(name, "/") {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown endpoint")
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := srv.library.Get(name)
		if err != nil {
			respondDomainError(w, err)
			return
		}
		respond(w, http.StatusOK, p)

	case http.MethodDelete:
		if err := srv.library.Remove(name); err != nil {
			respondDomainError(w, err)
			return
		}
		respond(w, http.StatusOK, map[string]string{"removed": name})

	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET or DELETE")
	}
}

// handleMatch evaluates a complete token sequence in one request.
func (srv *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST")
		return
	}

	var req matchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, _, err := req.resolve(srv.library)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	tokens, err := req.tokenize()
	if err != nil {
		respondDomainError(w, err)
		return
	}

	eval, err := match.NewSession(m)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	for _, tok := range tokens {
		if _, err := eval.Feed(tok); err != nil {
			respondDomainError(w, err)
			return
		}
	}
	respond(w, http.StatusOK, map[string]interface{}{
		"tokens":  len(tokens),
		"verdict": verdictInfo(eval.Verdict(), eval.PathCount()),
	})
}

// handleSessions creates a new streaming session.
func (srv *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use POST")
		return
	}

	var req patternRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	m, label, err := req.resolve(srv.library)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	s, err := srv.sessions.create(label, m)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respond(w, http.StatusCreated, sessionInfo(s))
}

// handleSessionByID serves /v1/sessions/{id} and /v1/sessions/{id}/stream.
func (srv *Server) handleSessionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	idStr, isStream := strings.CutSuffix(rest, "/stream")
	id, err := uuid.Parse(idStr)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_SESSION_ID", "Session IDs are UUIDs")
		return
	}
	s, ok := srv.sessions.get(id)
	if !ok {
		respondError(w, http.StatusNotFound, "SESSION_NOT_FOUND", "No such session")
		return
	}

	if isStream {
		srv.handleStream(w, r, s)
		return
	}

	switch r.Method {
	case http.MethodGet:
		respond(w, http.StatusOK, sessionInfo(s))
	case http.MethodDelete:
		srv.sessions.remove(id)
		respond(w, http.StatusOK, map[string]string{"closed": id.String()})
	default:
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Use GET or DELETE")
	}
}

// decodeJSON decodes a bounded JSON request body, responding with an error
// and returning false on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON: "+err.Error())
		return false
	}
	return true
}

// respondDomainError maps library and matcher errors to HTTP statuses.
func respondDomainError(w http.ResponseWriter, err error) {
	var (
		parseErr      *errors.ParseError
		validationErr *errors.ValidationError
	)
	switch {
	case errors.Is(err, errors.ErrNotFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, errors.ErrAlreadyExists):
		respondError(w, http.StatusConflict, "ALREADY_EXISTS", err.Error())
	case errors.Is(err, ErrTooManySessions):
		respondError(w, http.StatusServiceUnavailable, "TOO_MANY_SESSIONS", err.Error())
	case errors.As(err, &parseErr):
		respondError(w, http.StatusBadRequest, "INVALID_PATTERN", err.Error())
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	case errors.Is(err, errors.ErrInvalidInput), errors.Is(err, validation.ErrInvalidPatternName):
		respondError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
