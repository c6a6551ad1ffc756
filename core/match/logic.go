package match

import "strings"

// inversion inverts another matcher's verdict: Satisfied exactly when the
// inner verdict is Invalid, Invalid otherwise. The inversion is coarse: it
// collapses Continue, Matching and Satisfied into a single "not rejected"
// class, so Not(Not(m)) is generally not equivalent to m. This asymmetry
// is intentional.
type inversion[T any] struct {
	m Matcher[T]
}

func (n inversion[T]) Begin() (State, Verdict, error) {
	st, v, err := n.m.Begin()
	if err != nil {
		return nil, Invalid, err
	}
	return st, FromBool(v.IsInvalid()), nil
}

func (n inversion[T]) Continue(st State, tok T) (State, Verdict, error) {
	st, v, err := n.m.Continue(st, tok)
	if err != nil {
		return st, Invalid, err
	}
	return st, FromBool(v.IsInvalid()), nil
}

// Not matches a sequence exactly when m rejects it outright. See the note
// on inversion coarseness: Not(Not(m)) is not m.
func Not[T any](m Matcher[T]) Matcher[T] {
	return inversion[T]{m: m}
}

// siblingStates holds one state per child of a boolean combinator. It
// renders canonically so composite states compare structurally.
type siblingStates []State

func (ss siblingStates) String() string {
	keys := make([]string, len(ss))
	for i, st := range ss {
		keys[i] = stateKey(st)
	}
	return "[" + strings.Join(keys, "\x1d") + "]"
}

// junction evaluates every child on the same token stream in parallel and
// combines the per-step verdicts, with intersection (conjunction) or union
// (disjunction).
type junction[T any] struct {
	ms  []Matcher[T]
	all bool
}

func (j junction[T]) combine(vs []Verdict) Verdict {
	if j.all {
		return IntersectAll(vs...)
	}
	return UnionAll(vs...)
}

func (j junction[T]) Begin() (State, Verdict, error) {
	states := make(siblingStates, len(j.ms))
	verdicts := make([]Verdict, len(j.ms))
	for i, m := range j.ms {
		st, v, err := m.Begin()
		if err != nil {
			return nil, Invalid, err
		}
		states[i] = st
		verdicts[i] = v
	}
	return states, j.combine(verdicts), nil
}

func (j junction[T]) Continue(st State, tok T) (State, Verdict, error) {
	prev := st.(siblingStates)
	states := make(siblingStates, len(j.ms))
	verdicts := make([]Verdict, len(j.ms))
	for i, m := range j.ms {
		next, v, err := m.Continue(prev[i], tok)
		if err != nil {
			return st, Invalid, err
		}
		states[i] = next
		verdicts[i] = v
	}
	return states, j.combine(verdicts), nil
}

// And matches a sequence exactly when every child matches it. Each child
// receives every token independently; per-step verdicts combine with
// intersection. And of no children is Satisfied throughout.
func And[T any](ms ...Matcher[T]) Matcher[T] {
	return junction[T]{ms: ms, all: true}
}

// Or matches a sequence exactly when at least one child matches it. Each
// child receives every token independently; per-step verdicts combine with
// union. Or of no children is Invalid throughout.
func Or[T any](ms ...Matcher[T]) Matcher[T] {
	return junction[T]{ms: ms, all: false}
}
