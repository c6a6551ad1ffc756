package api

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/Cadence/core/match"
	"github.com/FocuswithJustin/Cadence/internal/logging"
)

// Session store defaults.
const (
	DefaultMaxSessions = 1024
	DefaultSessionTTL  = 30 * time.Minute
)

// ErrTooManySessions is returned when the concurrent session cap is reached.
var ErrTooManySessions = errors.New("too many active sessions")

// session is one live matching session. The evaluator is guarded by mu so a
// WebSocket stream and REST status polls can touch it concurrently.
type session struct {
	id      uuid.UUID
	pattern string // library name, or "inline" for ad-hoc sources
	created time.Time

	mu       sync.Mutex
	eval     *match.Session[any]
	tokens   int
	lastUsed time.Time
}

// feed consumes one token and returns the updated verdict.
func (s *session) feed(tok any) (match.Verdict, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.eval.Feed(tok)
	if err != nil {
		return v, err
	}
	s.tokens++
	s.lastUsed = time.Now()
	return v, nil
}

// snapshot returns the session's current verdict, path count, and token
// count without consuming anything.
func (s *session) snapshot() (match.Verdict, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eval.Verdict(), s.eval.PathCount(), s.tokens
}

// sessionStore tracks live sessions, capping their number and evicting
// sessions idle for longer than the TTL.
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*session
	max      int
	ttl      time.Duration
	done     chan struct{}
}

func newSessionStore(max int, ttl time.Duration) *sessionStore {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	st := &sessionStore{
		sessions: make(map[uuid.UUID]*session),
		max:      max,
		ttl:      ttl,
		done:     make(chan struct{}),
	}
	go st.sweep()
	return st
}

// create starts a session over m. The pattern argument is recorded for
// status reporting only.
func (st *sessionStore) create(pattern string, m match.Matcher[any]) (*session, error) {
	eval, err := match.NewSession(m)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if len(st.sessions) >= st.max {
		return nil, ErrTooManySessions
	}

	now := time.Now()
	s := &session{
		id:       uuid.New(),
		pattern:  pattern,
		created:  now,
		eval:     eval,
		lastUsed: now,
	}
	st.sessions[s.id] = s
	return s, nil
}

func (st *sessionStore) get(id uuid.UUID) (*session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	s, ok := st.sessions[id]
	return s, ok
}

func (st *sessionStore) remove(id uuid.UUID) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.sessions[id]; !ok {
		return false
	}
	delete(st.sessions, id)
	return true
}

func (st *sessionStore) count() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

func (st *sessionStore) close() {
	close(st.done)
}

// sweep periodically evicts sessions that have been idle past the TTL.
func (st *sessionStore) sweep() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-st.done:
			return
		case <-ticker.C:
			now := time.Now()
			st.mu.Lock()
			for id, s := range st.sessions {
				s.mu.Lock()
				idle := now.Sub(s.lastUsed)
				s.mu.Unlock()
				if idle > st.ttl {
					delete(st.sessions, id)
					logging.SessionEvent(id.String(), "expired", 0, "idle", idle.String())
				}
			}
			st.mu.Unlock()
		}
	}
}
