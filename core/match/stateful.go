package match

import "fmt"

// prevToken is the state of the consecutive-token matchers: the previously
// consumed token, or none at the start of the sequence.
type prevToken[T any] struct {
	seen bool
	prev T
}

// varying rejects two consecutive equal tokens.
type varying[T any] struct{}

func (varying[T]) Begin() (State, Verdict, error) {
	return prevToken[T]{}, Continue, nil
}

func (varying[T]) Continue(st State, tok T) (State, Verdict, error) {
	p := st.(prevToken[T])
	v := FromBool(!p.seen || any(tok) != any(p.prev))
	return prevToken[T]{seen: true, prev: tok}, v, nil
}

// Varying matches any non-empty run of tokens in which no two consecutive
// tokens are equal.
func Varying[T any]() Matcher[T] {
	return varying[T]{}
}

// ascending requires each token to be at least the previous one under an
// ordering function.
type ascending[T any] struct {
	ord func(a, b T) (int, error)
}

func (a ascending[T]) Begin() (State, Verdict, error) {
	return prevToken[T]{}, Continue, nil
}

func (a ascending[T]) Continue(st State, tok T) (State, Verdict, error) {
	p := st.(prevToken[T])
	next := prevToken[T]{seen: true, prev: tok}
	if !p.seen {
		return next, Satisfied, nil
	}
	c, err := a.ord(p.prev, tok)
	if err != nil {
		return st, Invalid, fmt.Errorf("ascending: %w", err)
	}
	return next, FromBool(c <= 0), nil
}

// Ascending matches any non-empty run of tokens in which each token is at
// least the previous one under ord. An ordering fault (two tokens that
// cannot be meaningfully compared) is returned as an error, not absorbed
// into an Invalid verdict: it indicates misuse of the matcher against an
// incompatible token domain, not a content mismatch.
func Ascending[T any](ord func(a, b T) (int, error)) Matcher[T] {
	return ascending[T]{ord: ord}
}

// seenSet is the state of the uniqueness matcher. Continue copies it
// before adding, so states remain value-like even though maps are shared
// by reference.
type seenSet map[any]struct{}

// unique rejects any token that has appeared before in the session.
type unique[T any] struct{}

func (unique[T]) Begin() (State, Verdict, error) {
	return seenSet{}, Satisfied, nil
}

func (unique[T]) Continue(st State, tok T) (State, Verdict, error) {
	seen := st.(seenSet)
	_, dup := seen[any(tok)]
	next := make(seenSet, len(seen)+1)
	for k := range seen {
		next[k] = struct{}{}
	}
	next[any(tok)] = struct{}{}
	return next, FromBool(!dup), nil
}

// Unique matches any run of tokens, including the empty one, in which no
// token appears twice. The empty prefix and every valid growing prefix are
// both currently matching, so its verdict is always Satisfied or Invalid.
func Unique[T any]() Matcher[T] {
	return unique[T]{}
}

// indexRange matches exactly the sequence 0, 1, ..., n-1 in order. It is
// the default superior matcher for strictly ordered, exactly-once serial
// composition. The state is the next expected index.
type indexRange struct {
	n int
}

func (r indexRange) Begin() (State, Verdict, error) {
	return 0, Continue, nil
}

func (r indexRange) Continue(st State, tok int) (State, Verdict, error) {
	next := st.(int)
	if tok != next {
		return next, Invalid, nil
	}
	if tok == r.n-1 {
		return next + 1, Matching, nil
	}
	return next + 1, Continue, nil
}

// IndexRange matches exactly the sequence of integers 0 through n-1, in
// order.
func IndexRange(n int) Matcher[int] {
	return indexRange{n: n}
}
