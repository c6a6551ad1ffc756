package match

// cardinality accepts runs of tokens whose length falls between low and
// high, ignoring the token values themselves. A negative high means
// unbounded.
//
// The state is the number of tokens consumed, saturated at the smallest
// count that still determines every future verdict (high+1 when bounded,
// low when unbounded). Saturation keeps the state space finite, which the
// serial engine's path deduplication relies on for termination.
type cardinality[T any] struct {
	low  int
	high int
}

func (c cardinality[T]) cap() int {
	if c.high < 0 {
		return c.low
	}
	return c.high + 1
}

func (c cardinality[T]) verdict(n int) Verdict {
	switch {
	case n < c.low:
		return Continue
	case c.high < 0:
		return Satisfied
	case n < c.high:
		return Satisfied
	case n == c.high:
		return Matching
	default:
		return Invalid
	}
}

func (c cardinality[T]) Begin() (State, Verdict, error) {
	return 0, c.verdict(0), nil
}

func (c cardinality[T]) Continue(st State, _ T) (State, Verdict, error) {
	n := st.(int) + 1
	if n > c.cap() {
		n = c.cap()
	}
	return n, c.verdict(n), nil
}

// Count matches any run of at least low tokens, of any value.
func Count[T any](low int) Matcher[T] {
	return cardinality[T]{low: low, high: -1}
}

// CountBetween matches any run of between low and high tokens, inclusive.
func CountBetween[T any](low, high int) Matcher[T] {
	return cardinality[T]{low: low, high: high}
}

// Exactly matches any run of exactly n tokens.
func Exactly[T any](n int) Matcher[T] {
	return CountBetween[T](n, n)
}

// Between matches any run of between n and m tokens, inclusive.
func Between[T any](n, m int) Matcher[T] {
	return CountBetween[T](n, m)
}

// ZeroOrMore matches every run of tokens, including the empty one.
func ZeroOrMore[T any]() Matcher[T] {
	return Count[T](0)
}

// OneOrMore matches every non-empty run of tokens.
func OneOrMore[T any]() Matcher[T] {
	return Count[T](1)
}

// Optional matches the empty run and every single token.
func Optional[T any]() Matcher[T] {
	return CountBetween[T](0, 1)
}

// ExactlyOne matches exactly one token, of any value.
func ExactlyOne[T any]() Matcher[T] {
	return Exactly[T](1)
}
