package match

import "sync"

// literal matches exactly one token equal to a wanted value. The state is
// true while the single token has not been consumed yet. Tokens compare by
// Go interface equality, so dynamic token types must be comparable.
type literal[T any] struct {
	want T
}

func (l literal[T]) Begin() (State, Verdict, error) {
	return true, Continue, nil
}

func (l literal[T]) Continue(st State, tok T) (State, Verdict, error) {
	if st.(bool) && any(tok) == any(l.want) {
		return false, Matching, nil
	}
	return false, Invalid, nil
}

// Literal matches exactly one token equal to v.
func Literal[T any](v T) Matcher[T] {
	return literal[T]{want: v}
}

// membership matches exactly one token drawn from a fixed set.
type membership[T any] struct {
	set map[any]struct{}
}

func (m membership[T]) Begin() (State, Verdict, error) {
	return true, Continue, nil
}

func (m membership[T]) Continue(st State, tok T) (State, Verdict, error) {
	if _, ok := m.set[any(tok)]; ok && st.(bool) {
		return false, Matching, nil
	}
	return false, Invalid, nil
}

// AnyOf matches exactly one token equal to any of vs.
func AnyOf[T any](vs ...T) Matcher[T] {
	set := make(map[any]struct{}, len(vs))
	for _, v := range vs {
		set[any(v)] = struct{}{}
	}
	return membership[T]{set: set}
}

// where matches any run of tokens, including the empty one, where every
// token individually satisfies a predicate. The empty run is accepted
// before any token has been consumed; downstream combinators depend on
// that, so it is deliberate.
type where[T any] struct {
	pred func(T) bool
}

func (w where[T]) Begin() (State, Verdict, error) {
	return struct{}{}, Satisfied, nil
}

func (w where[T]) Continue(st State, tok T) (State, Verdict, error) {
	return st, FromBool(w.pred(tok)), nil
}

// Where matches any run (including the empty run) of tokens individually
// satisfying pred. A panic raised by pred propagates to the caller.
func Where[T any](pred func(T) bool) Matcher[T] {
	return where[T]{pred: pred}
}

// deferred delays construction of a matcher until first use, enabling
// recursive definitions without infinite eager construction. The thunk is
// invoked once and its result cached.
type deferred[T any] struct {
	once  sync.Once
	thunk func() Matcher[T]
	m     Matcher[T]
}

func (d *deferred[T]) resolve() Matcher[T] {
	d.once.Do(func() {
		d.m = d.thunk()
	})
	return d.m
}

func (d *deferred[T]) Begin() (State, Verdict, error) {
	return d.resolve().Begin()
}

func (d *deferred[T]) Continue(st State, tok T) (State, Verdict, error) {
	return d.resolve().Continue(st, tok)
}

// Defer wraps a matcher-producing thunk. The thunk runs once, on first
// use, and the produced matcher handles all evaluation.
func Defer[T any](thunk func() Matcher[T]) Matcher[T] {
	return &deferred[T]{thunk: thunk}
}

// projection adapts a matcher over U into a matcher over T by transforming
// each token before delegation.
type projection[T, U any] struct {
	f func(T) U
	m Matcher[U]
}

func (p projection[T, U]) Begin() (State, Verdict, error) {
	return p.m.Begin()
}

func (p projection[T, U]) Continue(st State, tok T) (State, Verdict, error) {
	return p.m.Continue(st, p.f(tok))
}

// Project applies f to each token before handing it to m. It is a token
// adapter, not a control-flow construct: verdicts pass through untouched.
// A panic raised by f propagates to the caller.
func Project[T, U any](f func(T) U, m Matcher[U]) Matcher[T] {
	return projection[T, U]{f: f, m: m}
}
