package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/FocuswithJustin/Cadence/internal/logging"
)

// Stream connection tuning.
const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = 54 * time.Second

	// Maximum inbound message size in bytes. Tokens are scalars, so frames
	// are small.
	maxStreamMessageSize = 4096

	// Sustained inbound message rate per connection, with 2x burst.
	streamMessageRate = 200.0
)

// tokenFrame is one inbound stream message: a single token to feed.
type tokenFrame struct {
	Token json.RawMessage `json:"token"`
}

// streamReply answers each token frame with the updated verdict, or with an
// error when the frame could not be processed. The session survives error
// replies unchanged.
type streamReply struct {
	Verdict *VerdictInfo `json:"verdict,omitempty"`
	Tokens  int          `json:"tokens,omitempty"`
	Error   *APIError    `json:"error,omitempty"`
}

// isOriginAllowed checks an Origin header value against the allowlist.
// Exact matches, wildcard subdomains (*.example.com), and "*" are supported.
func isOriginAllowed(origin string, allowedOrigins []string) bool {
	for _, allowed := range allowedOrigins {
		if allowed == "*" || origin == allowed {
			return true
		}
		if domain, ok := strings.CutPrefix(allowed, "*."); ok {
			if strings.HasSuffix(origin, domain) {
				return true
			}
		}
	}
	return false
}

// checkOrigin validates browser connections against the configured origins.
// Requests without an Origin header come from non-browser clients and pass;
// an empty allowlist admits every origin.
func (srv *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(srv.cfg.AllowedOrigins) == 0 {
		return true
	}
	if !isOriginAllowed(origin, srv.cfg.AllowedOrigins) {
		logging.SecurityEvent("websocket_origin_rejected", "api", "origin", origin)
		return false
	}
	return true
}

// handleStream upgrades the connection and feeds the session one token per
// inbound message, answering each with the updated verdict.
func (srv *Server) handleStream(w http.ResponseWriter, r *http.Request, s *session) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     srv.checkOrigin,
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.SessionError(s.id.String(), "upgrade", err)
		return
	}
	defer conn.Close()
	logging.WebSocketEvent("stream_opened", srv.sessions.count(), "session_id", s.id.String())

	conn.SetReadLimit(maxStreamMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	// Keep the connection alive between tokens. WriteControl is safe to use
	// concurrently with the reply writes below.
	stopPings := make(chan struct{})
	defer close(stopPings)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-stopPings:
				return
			case <-ticker.C:
				deadline := time.Now().Add(writeWait)
				if err := conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
					return
				}
			}
		}
	}()

	bucket := newTokenBucket(streamMessageRate*2, streamMessageRate)
	for {
		var frame tokenFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logging.SessionError(s.id.String(), "stream_read", err)
			}
			break
		}

		var reply streamReply
		if allowed, _, _ := bucket.take(); !allowed {
			logging.SecurityEvent("websocket_rate_limited", "api", "session_id", s.id.String())
			reply.Error = &APIError{Code: "RATE_LIMIT_EXCEEDED", Message: "Message rate too high"}
		} else if tok, err := decodeToken(frame); err != nil {
			reply.Error = &APIError{Code: "INVALID_TOKEN", Message: err.Error()}
		} else if v, err := s.feed(tok); err != nil {
			reply.Error = &APIError{Code: "MATCH_ERROR", Message: err.Error()}
		} else {
			s.mu.Lock()
			paths, tokens := s.eval.PathCount(), s.tokens
			s.mu.Unlock()
			vi := verdictInfo(v, paths)
			reply.Verdict = &vi
			reply.Tokens = tokens
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(reply); err != nil {
			logging.SessionError(s.id.String(), "stream_write", err)
			break
		}
	}

	v, paths, tokens := s.snapshot()
	logging.SessionEvent(s.id.String(), "stream_closed", paths,
		"tokens", tokens, "verdict", v.String())
}

// decodeToken extracts the scalar token from a frame. JSON numbers decode
// to float64, matching the numeric normalization used everywhere else.
func decodeToken(frame tokenFrame) (any, error) {
	if frame.Token == nil {
		return nil, errMissingToken
	}
	var tok any
	if err := json.Unmarshal(frame.Token, &tok); err != nil {
		return nil, err
	}
	switch tok.(type) {
	case map[string]interface{}, []interface{}:
		return nil, errCompositeToken
	}
	return tok, nil
}

var (
	errMissingToken   = &APIError{Code: "INVALID_TOKEN", Message: `frame must carry a "token" field`}
	errCompositeToken = &APIError{Code: "INVALID_TOKEN", Message: "tokens must be JSON scalars"}
)

// Error makes APIError usable as an error for token decoding.
func (e *APIError) Error() string { return e.Message }
