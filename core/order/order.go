// Package order provides ordering functions and comparison predicates for
// the matchers in core/match. Ordering-dependent matchers signal a fault
// when two tokens cannot be meaningfully ordered; that fault is this
// package's ErrIncomparable, never a silent rejection.
package order

import (
	"cmp"
	"fmt"

	"github.com/FocuswithJustin/Cadence/core/errors"
)

// ErrIncomparable indicates two tokens that cannot be meaningfully ordered.
var ErrIncomparable = errors.ErrIncomparable

// Ordering compares two tokens, returning a negative value when a sorts
// before b, zero when they sort equally, and a positive value when a sorts
// after b. It returns ErrIncomparable (possibly wrapped) when the tokens
// have no meaningful order.
type Ordering[T any] func(a, b T) (int, error)

// Natural returns the ordering of any natively ordered Go type.
func Natural[T cmp.Ordered]() Ordering[T] {
	return func(a, b T) (int, error) {
		return cmp.Compare(a, b), nil
	}
}

// Dynamic orders tokens of dynamic type: all numeric kinds order among
// themselves, strings order among themselves, and anything else (or a mix
// of the two classes) is incomparable.
func Dynamic(a, b any) (int, error) {
	if x, ok := numeric(a); ok {
		if y, ok := numeric(b); ok {
			return cmp.Compare(x, y), nil
		}
		return 0, fmt.Errorf("cannot order %T against %T: %w", a, b, ErrIncomparable)
	}
	if x, ok := a.(string); ok {
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y), nil
		}
	}
	return 0, fmt.Errorf("cannot order %T against %T: %w", a, b, ErrIncomparable)
}

// numeric widens any built-in numeric value to float64. The widening can
// lose precision beyond 2^53, which is acceptable for ordering tokens.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

// MustCompare is Dynamic for use inside predicates, which have no error
// channel: an ordering fault panics and propagates to the caller of the
// matcher's Continue, per the matcher contract.
func MustCompare(a, b any) int {
	c, err := Dynamic(a, b)
	if err != nil {
		panic(err)
	}
	return c
}

// Comparison predicates over natively ordered types, for match.Where.

// GreaterThan reports whether a token exceeds v.
func GreaterThan[T cmp.Ordered](v T) func(T) bool {
	return func(tok T) bool { return tok > v }
}

// AtLeast reports whether a token is v or more.
func AtLeast[T cmp.Ordered](v T) func(T) bool {
	return func(tok T) bool { return tok >= v }
}

// LessThan reports whether a token is below v.
func LessThan[T cmp.Ordered](v T) func(T) bool {
	return func(tok T) bool { return tok < v }
}

// AtMost reports whether a token is v or less.
func AtMost[T cmp.Ordered](v T) func(T) bool {
	return func(tok T) bool { return tok <= v }
}

// InRange reports whether a token lies in [lo, hi].
func InRange[T cmp.Ordered](lo, hi T) func(T) bool {
	return func(tok T) bool { return tok >= lo && tok <= hi }
}

// Comparison predicates over dynamically typed tokens. These panic with
// ErrIncomparable when a token cannot be ordered against the bound.

// Above reports whether a dynamic token exceeds v.
func Above(v any) func(any) bool {
	return func(tok any) bool { return MustCompare(tok, v) > 0 }
}

// Below reports whether a dynamic token is under v.
func Below(v any) func(any) bool {
	return func(tok any) bool { return MustCompare(tok, v) < 0 }
}

// Within reports whether a dynamic token lies in [lo, hi].
func Within(lo, hi any) func(any) bool {
	return func(tok any) bool {
		return MustCompare(tok, lo) >= 0 && MustCompare(tok, hi) <= 0
	}
}
