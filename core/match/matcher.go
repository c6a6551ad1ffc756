package match

import "fmt"

// State is the opaque per-session state threaded through successive
// Continue calls. Its concrete shape depends on the matcher variant and
// must not be inspected by callers.
type State any

// Matcher is an immutable, side-effect-free recognition rule over token
// streams of type T. A matcher never blocks, retains no reference to the
// tokens it is given, and is never mutated by evaluation, so a single tree
// may serve concurrent sessions without synchronization.
//
// The error return is nil for all built-in matcher logic except ordering
// faults (see Ascending); failures raised inside caller-supplied predicate
// or projection functions propagate to the caller unmodified.
type Matcher[T any] interface {
	// Begin returns the initial state and the verdict for the empty token
	// sequence.
	Begin() (State, Verdict, error)

	// Continue returns the updated state and the verdict after consuming
	// tok, given the state from the previous call.
	Continue(st State, tok T) (State, Verdict, error)
}

// Session evaluates one token sequence against a matcher, threading the
// opaque state between calls so callers do not have to.
type Session[T any] struct {
	matcher Matcher[T]
	state   State
	verdict Verdict
}

// NewSession starts a matching session. The returned session already holds
// the verdict for the empty sequence.
func NewSession[T any](m Matcher[T]) (*Session[T], error) {
	st, v, err := m.Begin()
	if err != nil {
		return nil, err
	}
	return &Session[T]{matcher: m, state: st, verdict: v}, nil
}

// Feed consumes one token and returns the updated verdict. On error the
// session keeps its previous state.
func (s *Session[T]) Feed(tok T) (Verdict, error) {
	st, v, err := s.matcher.Continue(s.state, tok)
	if err != nil {
		return Invalid, err
	}
	s.state = st
	s.verdict = v
	return v, nil
}

// Verdict returns the verdict for the tokens fed so far.
func (s *Session[T]) Verdict() Verdict { return s.verdict }

// PathCount returns the number of live alignment paths when the session's
// matcher is a serial composition, and 0 otherwise. It exists so callers
// can observe worst-case path growth.
func (s *Session[T]) PathCount() int {
	n, _ := PathCount(s.state)
	return n
}

// Run feeds every token of input through m in order and returns the final
// verdict.
func Run[T any](m Matcher[T], input []T) (Verdict, error) {
	s, err := NewSession(m)
	if err != nil {
		return Invalid, err
	}
	for _, tok := range input {
		if _, err := s.Feed(tok); err != nil {
			return Invalid, err
		}
	}
	return s.Verdict(), nil
}

// Accepts reports whether m accepts input as a complete sequence.
func Accepts[T any](m Matcher[T], input []T) (bool, error) {
	v, err := Run(m, input)
	if err != nil {
		return false, err
	}
	return v.IsMatching(), nil
}

// stateKey returns a canonical textual form of a state, used for the
// structural equality tests of the serial engine. fmt prints map keys in
// sorted order, and composite states implement fmt.Stringer with a
// canonical rendering, so equal states always produce equal keys.
func stateKey(st State) string {
	return fmt.Sprintf("%T\x1e%v", st, st)
}
